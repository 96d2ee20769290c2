package imagefs

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"sort"
	"strings"
)

const (
	pngSignature = "\x89PNG\r\n\x1a\n"
	jpegICCTag   = "ICC_PROFILE\x00"
	maxICCSize   = 4 << 20
)

// extractICC returns the embedded ICC profile for PNG and JPEG data, nil
// when there is none or the container is malformed.
func extractICC(format string, data []byte) []byte {
	switch format {
	case "png":
		return pngICC(data)
	case "jpeg":
		return jpegICC(data)
	default:
		return nil
	}
}

// pngICC reads the zlib-compressed profile of the iCCP chunk.
func pngICC(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte(pngSignature)) {
		return nil
	}
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		kind := string(data[pos+4 : pos+8])
		start := pos + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			return nil
		}
		switch kind {
		case "iCCP":
			return inflateICCP(data[start:end])
		case "IDAT", "IEND":
			// iCCP must precede image data
			return nil
		}
		pos = end + 4
	}
	return nil
}

func inflateICCP(chunk []byte) []byte {
	// profile name, NUL, compression method (0 = zlib), compressed profile
	nul := bytes.IndexByte(chunk, 0)
	if nul < 0 || nul+2 > len(chunk) || chunk[nul+1] != 0 {
		return nil
	}
	r, err := zlib.NewReader(bytes.NewReader(chunk[nul+2:]))
	if err != nil {
		return nil
	}
	defer r.Close()
	profile, err := io.ReadAll(io.LimitReader(r, maxICCSize))
	if err != nil || len(profile) == 0 {
		return nil
	}
	return profile
}

// jpegICC reassembles the APP2 ICC_PROFILE segments in sequence order.
func jpegICC(data []byte) []byte {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil
	}

	type part struct {
		seq  byte
		data []byte
	}
	var parts []part

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return nil
		}
		marker := data[pos+1]
		if marker == 0xDA || marker == 0xD9 { // start of scan, end of image
			break
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		start := pos + 4
		end := pos + 2 + length
		if length < 2 || end > len(data) {
			return nil
		}
		seg := data[start:end]
		if marker == 0xE2 && len(seg) > len(jpegICCTag)+2 && string(seg[:len(jpegICCTag)]) == jpegICCTag {
			parts = append(parts, part{seq: seg[len(jpegICCTag)], data: seg[len(jpegICCTag)+2:]})
		}
		pos = end
	}
	if len(parts) == 0 {
		return nil
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].seq < parts[j].seq })
	var profile []byte
	for _, p := range parts {
		profile = append(profile, p.data...)
	}
	return profile
}

// iccColorSpace decodes the data color space signature of an ICC header.
func iccColorSpace(icc []byte) string {
	if len(icc) < 20 {
		return ""
	}
	switch sig := string(icc[16:20]); sig {
	case "RGB ":
		return "RGB"
	case "GRAY":
		return "Gray"
	case "CMYK":
		return "CMYK"
	default:
		return strings.TrimSpace(sig)
	}
}
