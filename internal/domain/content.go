package domain

// BlockTag is the styling of a content block.
type BlockTag string

const (
	// BlockParagraph is a plain paragraph and the default block style.
	BlockParagraph BlockTag = "p"
	// BlockStrong is an emphasized block.
	BlockStrong BlockTag = "strong"
)

// Valid reports whether t is a known block style.
func (t BlockTag) Valid() bool {
	return t == BlockParagraph || t == BlockStrong
}

// ContentBlock is one styled run of text in a novel description or chapter body.
type ContentBlock struct {
	Tag  BlockTag `json:"tag" validate:"required,block_tag"`
	Text string   `json:"text" validate:"required"`
}

// NormalizeBlocks returns blocks with missing tags defaulted to a paragraph.
func NormalizeBlocks(blocks []ContentBlock) []ContentBlock {
	if blocks == nil {
		return nil
	}
	out := make([]ContentBlock, len(blocks))
	for i, b := range blocks {
		if b.Tag == "" {
			b.Tag = BlockParagraph
		}
		out[i] = b
	}
	return out
}
