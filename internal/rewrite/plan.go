package rewrite

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"

	"flacfixer/internal/flacfile"
)

// Policy selects which metadata survives a rewrite. The options are
// independent of each other and fully determine the plan for a given file.
type Policy struct {
	// RemovePictures drops every picture block.
	RemovePictures bool
	// RemoveID3 drops an ID3v2 prefix and an ID3v1 trailer when present.
	RemoveID3 bool
	// MaxPaddingBytes caps the combined padding payload. Files over the cap
	// are rewritten with a single padding block of exactly this size; zero
	// removes padding outright. Padding is never added to a file that has
	// none.
	MaxPaddingBytes int64
	// ExportPictures emits an export action for every decodable picture,
	// whether or not the block itself is kept.
	ExportPictures bool
}

// ExportAction carries one picture payload out of a planned file. The
// fingerprint is the hex SHA-256 of the image bytes and is what export
// deduplication keys on.
type ExportAction struct {
	Fingerprint string
	MIME        string
	Description string
	Data        []byte
}

// Plan is the computed outcome of applying a Policy to a file's metadata:
// the ordered block set to write, whether the ID3 appendices ride along,
// and the picture payloads to export. Changed reports whether writing the
// plan would alter the file; exports alone never set it.
type Plan struct {
	Blocks    []*flac.MetaDataBlock
	KeepID3v2 bool
	KeepID3v1 bool
	Exports   []ExportAction
	Changed   bool
}

// PaddingBytes sums the padding payload the plan retains.
func (p *Plan) PaddingBytes() int64 {
	var total int64
	for _, block := range p.Blocks {
		if block.Type == flac.Padding {
			total += int64(len(block.Data))
		}
	}
	return total
}

// PictureCount reports how many picture blocks the plan retains.
func (p *Plan) PictureCount() int {
	count := 0
	for _, block := range p.Blocks {
		if block.Type == flac.Picture {
			count++
		}
	}
	return count
}

// BuildPlan decides, block by block, what a rewrite of f under pol would
// keep. It is pure: no filesystem access, no mutation of f, and the kept
// blocks alias f's so unchanged metadata is written back byte-identical.
func BuildPlan(f *flacfile.File, pol Policy) *Plan {
	plan := &Plan{
		Blocks:    make([]*flac.MetaDataBlock, 0, len(f.Blocks)),
		KeepID3v2: !pol.RemoveID3 && len(f.ID3v2) > 0,
		KeepID3v1: !pol.RemoveID3 && len(f.ID3v1) > 0,
	}

	// Padding is judged on the combined payload across all padding blocks,
	// so the total has to be known before any block decision is made.
	var padding int64
	for _, block := range f.Blocks {
		if block.Type == flac.Padding {
			padding += int64(len(block.Data))
		}
	}
	shrinkPadding := padding > pol.MaxPaddingBytes

	for _, block := range f.Blocks {
		switch block.Type {
		case flac.Picture:
			if pol.ExportPictures {
				if action, ok := exportActionFor(block); ok {
					plan.Exports = append(plan.Exports, action)
				}
			}
			if pol.RemovePictures {
				continue
			}
			plan.Blocks = append(plan.Blocks, block)
		case flac.Padding:
			if shrinkPadding {
				continue
			}
			plan.Blocks = append(plan.Blocks, block)
		default:
			plan.Blocks = append(plan.Blocks, block)
		}
	}

	// An oversized file gets one fresh block of exactly the cap, at the end
	// of the metadata region. A cap of zero means no padding at all, and a
	// file that had none stays that way.
	if shrinkPadding && pol.MaxPaddingBytes > 0 {
		plan.Blocks = append(plan.Blocks, &flac.MetaDataBlock{
			Type: flac.Padding,
			Data: make([]byte, pol.MaxPaddingBytes),
		})
	}

	plan.Changed = plan.KeepID3v2 != (len(f.ID3v2) > 0) ||
		plan.KeepID3v1 != (len(f.ID3v1) > 0) ||
		!sameBlocks(f.Blocks, plan.Blocks)
	return plan
}

// sameBlocks reports whether out is exactly the input block sequence. Kept
// blocks alias the input, so pointer identity is sufficient.
func sameBlocks(in, out []*flac.MetaDataBlock) bool {
	if len(in) != len(out) {
		return false
	}
	for i := range in {
		if in[i] != out[i] {
			return false
		}
	}
	return true
}

// exportActionFor decodes a picture block into an export action. A payload
// the picture codec cannot decode yields no action; the block itself is
// still kept or dropped purely by type.
func exportActionFor(block *flac.MetaDataBlock) (ExportAction, bool) {
	pic, err := flacpicture.ParseFromMetaDataBlock(*block)
	if err != nil {
		return ExportAction{}, false
	}
	sum := sha256.Sum256(pic.ImageData)
	return ExportAction{
		Fingerprint: hex.EncodeToString(sum[:]),
		MIME:        pic.MIME,
		Description: pic.Description,
		Data:        pic.ImageData,
	}, true
}
