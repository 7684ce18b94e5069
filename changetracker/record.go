package changetracker

import "encoding/binary"

const fileReferenceMask = 0x0000FFFFFFFFFFFF

const fileAttributeDirectory = 0x10

// journalRecord is one parsed USN_RECORD_V2 change record, the journal
// counterpart of mft.Record — carrying Usn/Reason as well, since unlike a
// plain MFT enumeration a journal read needs both to decide what changed.
type journalRecord struct {
	Usn       int64
	Reason    uint32
	FileRef   uint64
	ParentRef uint64
	Name      string
	IsDir     bool
}

// parseJournalRecords walks one buffer's worth of packed USN_RECORD_V2
// change records, the same offset-advancing shape mft.go's parseRecords
// uses for the enumeration buffer (both ioctls emit the same on-wire
// record layout; only the surrounding fields this package reads differ).
func parseJournalRecords(buf []byte) []journalRecord {
	var out []journalRecord
	offset := 0
	for offset < len(buf) {
		if offset+60 > len(buf) {
			break
		}
		recordLength := binary.LittleEndian.Uint32(buf[offset:])
		if recordLength == 0 || int(recordLength) > len(buf)-offset {
			break
		}
		record := buf[offset : offset+int(recordLength)]

		fileRef := binary.LittleEndian.Uint64(record[8:16]) & fileReferenceMask
		parentRef := binary.LittleEndian.Uint64(record[16:24]) & fileReferenceMask
		usn := int64(binary.LittleEndian.Uint64(record[24:32]))
		reason := binary.LittleEndian.Uint32(record[40:44])
		attrs := binary.LittleEndian.Uint32(record[52:56])
		nameLen := binary.LittleEndian.Uint16(record[56:58])
		nameOffset := binary.LittleEndian.Uint16(record[58:60])

		name := decodeUTF16Name(record, int(nameOffset), int(nameLen))

		out = append(out, journalRecord{
			Usn:       usn,
			Reason:    reason,
			FileRef:   fileRef,
			ParentRef: parentRef,
			Name:      name,
			IsDir:     attrs&fileAttributeDirectory != 0,
		})

		offset += int(recordLength)
	}
	return out
}

func decodeUTF16Name(record []byte, offset, byteLen int) string {
	if offset < 0 || byteLen < 0 || offset+byteLen > len(record) {
		return ""
	}
	u16 := make([]uint16, byteLen/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(record[offset+i*2 : offset+i*2+2])
	}
	for i, v := range u16 {
		if v == 0 {
			u16 = u16[:i]
			break
		}
	}
	runes := make([]rune, 0, len(u16))
	for i := 0; i < len(u16); i++ {
		r := rune(u16[i])
		if r >= 0xD800 && r < 0xDC00 && i+1 < len(u16) {
			r2 := rune(u16[i+1])
			if r2 >= 0xDC00 && r2 < 0xE000 {
				runes = append(runes, ((r-0xD800)<<10|(r2-0xDC00))+0x10000)
				i++
				continue
			}
		}
		runes = append(runes, r)
	}
	return string(runes)
}
