// Package processor splits markup-bearing localization strings into text runs
// that can be translated independently of their tags.
package processor

import "github.com/ZaguanLabs/locsync"

// ContentProcessor is an alias of locsync.ContentProcessor.
type ContentProcessor = locsync.ContentProcessor

// TextNode is an alias of locsync.TextNode.
type TextNode = locsync.TextNode
