// Package inspect builds a read-only description of one FLAC file: the
// stream parameters, every metadata block with a type-specific detail, and
// whatever tags ride inside or around the container.
package inspect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flacfixer/internal/flacfile"
)

// fingerprintDigits matches the picture exporter's file name suffix, so an
// inspected fingerprint can be matched to an exported file by eye.
const fingerprintDigits = 12

// seekPointSize is the wire size of one FLAC seek point.
const seekPointSize = 18

// Report is everything inspect learned about one file.
type Report struct {
	Path        string
	Size        int64
	Info        flacfile.StreamInfo
	AudioOffset int64
	AudioSize   int64

	Blocks []Block

	ID3v2 *flacfile.ID3v2Info
	ID3v1 bool

	// Tags is a best-effort read of the common tag fields; unreadable or
	// untagged files simply leave it empty.
	Tags []TagField
}

// Block describes one metadata block for display.
type Block struct {
	Index  int
	Type   string
	Size   int
	Detail string
}

// TagField is one generic tag in display order.
type TagField struct {
	Name  string
	Value string
}

// Describe reads the metadata of the FLAC file at path and assembles the
// report. The file is never modified.
func Describe(path string) (*Report, error) {
	f, err := flacfile.Open(path)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Path:        f.Path,
		Size:        f.Size,
		Info:        f.Info,
		AudioOffset: f.AudioOffset,
		AudioSize:   f.AudioSize,
		ID3v1:       len(f.ID3v1) > 0,
	}
	if info, ok := f.ID3v2Details(); ok {
		report.ID3v2 = &info
	}
	for i, block := range f.Blocks {
		report.Blocks = append(report.Blocks, Block{
			Index:  i,
			Type:   titleCase(flacfile.BlockTypeName(block.Type)),
			Size:   len(block.Data),
			Detail: blockDetail(block),
		})
	}
	report.Tags = readTags(path)
	return report, nil
}

func blockDetail(block *flac.MetaDataBlock) string {
	switch block.Type {
	case flac.VorbisComment:
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return "undecodable"
		}
		detail := fmt.Sprintf("%d fields", len(cmt.Comments))
		if cmt.Vendor != "" {
			detail += fmt.Sprintf(", vendor %q", cmt.Vendor)
		}
		return detail
	case flac.Picture:
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			return "undecodable"
		}
		return pictureDetail(pic)
	case flac.Padding:
		for _, b := range block.Data {
			if b != 0 {
				return "not zeroed"
			}
		}
		return ""
	case flac.SeekTable:
		return fmt.Sprintf("%d seek points", len(block.Data)/seekPointSize)
	case flac.Application:
		if len(block.Data) >= 4 && printableASCII(block.Data[:4]) {
			return fmt.Sprintf("id %q", string(block.Data[:4]))
		}
		return ""
	default:
		return ""
	}
}

func pictureDetail(pic *flacpicture.MetadataBlockPicture) string {
	parts := []string{pictureTypeLabel(pic.PictureType)}
	if pic.MIME != "" {
		parts = append(parts, pic.MIME)
	}
	if pic.Width > 0 && pic.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", pic.Width, pic.Height))
	}
	sum := sha256.Sum256(pic.ImageData)
	parts = append(parts, hex.EncodeToString(sum[:])[:fingerprintDigits])
	return strings.Join(parts, ", ")
}

// pictureTypeNames carries the picture types the FLAC format defines, keyed
// by their wire values.
var pictureTypeNames = map[flacpicture.PictureType]string{
	0:  "other",
	1:  "file icon",
	2:  "other icon",
	3:  "front cover",
	4:  "back cover",
	5:  "leaflet",
	6:  "media",
	7:  "lead artist",
	8:  "artist",
	9:  "conductor",
	10: "band",
	11: "composer",
	12: "lyricist",
	13: "recording location",
	14: "during recording",
	15: "during performance",
	16: "screen capture",
	17: "bright coloured fish",
	18: "illustration",
	19: "band logotype",
	20: "publisher logotype",
}

func pictureTypeLabel(t flacpicture.PictureType) string {
	if name, ok := pictureTypeNames[t]; ok {
		return titleCase(name)
	}
	return fmt.Sprintf("type %d", uint32(t))
}

// readTags reads the generic tag view of the file. Failures are not the
// inspector's business: a file without readable tags just has none.
func readTags(path string) []TagField {
	handle, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer handle.Close()

	meta, err := tag.ReadFrom(handle)
	if err != nil {
		return nil
	}

	var fields []TagField
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, TagField{Name: name, Value: value})
		}
	}
	add("Title", meta.Title())
	add("Artist", meta.Artist())
	add("Album", meta.Album())
	add("Album artist", meta.AlbumArtist())
	add("Composer", meta.Composer())
	add("Genre", meta.Genre())
	if year := meta.Year(); year != 0 {
		add("Year", strconv.Itoa(year))
	}
	if track, total := meta.Track(); track != 0 {
		value := strconv.Itoa(track)
		if total != 0 {
			value += "/" + strconv.Itoa(total)
		}
		add("Track", value)
	}
	return fields
}

func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func printableASCII(data []byte) bool {
	for _, b := range data {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
