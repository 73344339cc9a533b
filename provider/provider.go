// Package provider holds the AI backends that translate batches of strings.
package provider

import "github.com/ZaguanLabs/locsync"

// AIProvider is an alias of locsync.AIProvider.
type AIProvider = locsync.AIProvider

// TranslateRequest is an alias of locsync.TranslateRequest.
type TranslateRequest = locsync.TranslateRequest
