package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
)

const (
	wordIdent       = 0xA5EC
	fibFlagsOffset  = 0x000A
	fibWhichTblStm  = 0x0200
	fibFcClxOffset  = 0x01A2
	fibLcbClxOffset = 0x01A6
	pcdCompressed   = 0x40000000
)

// extractDOC reads a Word 97-2003 binary document through its piece table.
// Files that are really OOXML under a .doc name are handed to extractDOCX.
func extractDOC(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, 0); err != nil {
		return "", fmt.Errorf("read header: %w", err)
	}
	if bytes.Equal(magic, []byte("PK\x03\x04")) {
		return extractDOCX(path)
	}

	doc, err := mscfb.New(f)
	if err != nil {
		return "", fmt.Errorf("open compound file: %w", err)
	}

	streams := make(map[string][]byte, 3)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
			buf := make([]byte, entry.Size)
			if _, err := io.ReadFull(entry, buf); err != nil {
				return "", fmt.Errorf("read %s stream: %w", entry.Name, err)
			}
			streams[entry.Name] = buf
		}
	}

	return wordBinaryText(streams["WordDocument"], streams["0Table"], streams["1Table"])
}

// wordBinaryText decodes the text pieces listed in the Clx of the table stream
func wordBinaryText(wordDoc, table0, table1 []byte) (string, error) {
	if len(wordDoc) < fibLcbClxOffset+4 {
		return "", errors.New("WordDocument stream missing or truncated")
	}
	if binary.LittleEndian.Uint16(wordDoc) != wordIdent {
		return "", errors.New("not a Word 97-2003 document")
	}

	table := table0
	if binary.LittleEndian.Uint16(wordDoc[fibFlagsOffset:])&fibWhichTblStm != 0 {
		table = table1
	}
	if table == nil {
		return "", errors.New("table stream not found")
	}

	fcClx := int(binary.LittleEndian.Uint32(wordDoc[fibFcClxOffset:]))
	lcbClx := int(binary.LittleEndian.Uint32(wordDoc[fibLcbClxOffset:]))
	if fcClx < 0 || lcbClx <= 0 || fcClx+lcbClx > len(table) {
		return "", errors.New("piece table out of range")
	}
	clx := table[fcClx : fcClx+lcbClx]

	// skip Prc entries
	i := 0
	for i < len(clx) && clx[i] == 0x01 {
		if i+3 > len(clx) {
			return "", errors.New("truncated property modifier")
		}
		i += 3 + int(int16(binary.LittleEndian.Uint16(clx[i+1:])))
	}
	if i+5 > len(clx) || clx[i] != 0x02 {
		return "", errors.New("piece table not found")
	}
	lcb := int(binary.LittleEndian.Uint32(clx[i+1:]))
	if lcb < 4 || i+5+lcb > len(clx) {
		return "", errors.New("piece table truncated")
	}
	plc := clx[i+5 : i+5+lcb]

	n := (lcb - 4) / 12
	decoder := charmap.Windows1252.NewDecoder()
	var b strings.Builder

	for k := 0; k < n; k++ {
		cpStart := binary.LittleEndian.Uint32(plc[4*k:])
		cpEnd := binary.LittleEndian.Uint32(plc[4*(k+1):])
		if cpEnd < cpStart {
			return "", errors.New("invalid character positions")
		}
		count := int(cpEnd - cpStart)
		fc := binary.LittleEndian.Uint32(plc[4*(n+1)+8*k+2:])

		if fc&pcdCompressed != 0 {
			offset := int(fc&^pcdCompressed) / 2
			if offset+count > len(wordDoc) {
				return "", errors.New("text piece out of range")
			}
			text, err := decoder.Bytes(wordDoc[offset : offset+count])
			if err != nil {
				return "", err
			}
			b.Write(text)
			continue
		}

		offset := int(fc)
		if offset+2*count > len(wordDoc) {
			return "", errors.New("text piece out of range")
		}
		units := make([]uint16, count)
		for j := range units {
			units[j] = binary.LittleEndian.Uint16(wordDoc[offset+2*j:])
		}
		b.WriteString(string(utf16.Decode(units)))
	}

	return cleanWordText(b.String()), nil
}

// cleanWordText maps Word control characters to plain text and drops field
// instructions, keeping field results
func cleanWordText(s string) string {
	var b strings.Builder
	// each open field is true while its instruction part is being read
	var fields []bool

	for _, r := range s {
		switch r {
		case 0x13:
			fields = append(fields, true)
			continue
		case 0x14:
			if len(fields) > 0 {
				fields[len(fields)-1] = false
			}
			continue
		case 0x15:
			if len(fields) > 0 {
				fields = fields[:len(fields)-1]
			}
			continue
		}

		if len(fields) > 0 && fields[len(fields)-1] {
			continue
		}

		switch {
		case r == '\r' || r == 0x0B || r == 0x0C:
			b.WriteByte('\n')
		case r == 0x07:
			b.WriteByte('\t')
		case r == '\t' || r == '\n':
			b.WriteRune(r)
		case r < 0x20:
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimRight(b.String(), "\n\t ")
}
