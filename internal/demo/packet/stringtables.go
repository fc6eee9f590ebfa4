package packet

import (
	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
)

// StringTable 快照中的一张字符串表
type StringTable struct {
	Name          string
	Entries       []stringtable.IndexedEntry
	ClientEntries []stringtable.IndexedEntry
}

// StringTablesPacket 字符串表快照
type StringTablesPacket struct {
	Tick   uint32
	Tables []StringTable
}

func (*StringTablesPacket) Type() Type { return TypeStringTables }

// ReadStringTables 读取快照；快照条目必带文本，附加数据以 u16 字节长度前缀
func ReadStringTables(r *bitstream.Reader) (*StringTablesPacket, error) {
	p := &StringTablesPacket{}
	var err error
	if p.Tick, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	length, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	body, err := r.ReadSubReader(int(length) * 8)
	if err != nil {
		return nil, err
	}
	count, err := body.ReadUint8()
	if err != nil {
		return nil, err
	}
	p.Tables = make([]StringTable, 0, count)
	for i := 0; i < int(count); i++ {
		table, err := readSnapshotTable(body)
		if err != nil {
			return nil, err
		}
		p.Tables = append(p.Tables, table)
	}
	if err := body.EnsureConsumed(); err != nil {
		return nil, err
	}
	return p, nil
}

func readSnapshotTable(r *bitstream.Reader) (StringTable, error) {
	var t StringTable
	var err error
	if t.Name, err = r.ReadString(); err != nil {
		return t, err
	}
	if t.Entries, err = readSnapshotEntries(r); err != nil {
		return t, err
	}
	hasClient, err := r.ReadBool()
	if err != nil {
		return t, err
	}
	if hasClient {
		if t.ClientEntries, err = readSnapshotEntries(r); err != nil {
			return t, err
		}
	}
	return t, nil
}

func readSnapshotEntries(r *bitstream.Reader) ([]stringtable.IndexedEntry, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	entries := make([]stringtable.IndexedEntry, 0, n)
	for i := 0; i < int(n); i++ {
		text, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		entry := stringtable.Entry{Text: &text}
		hasExtra, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if hasExtra {
			size, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			data, err := r.ReadRaw(int(size) * 8)
			if err != nil {
				return nil, err
			}
			entry.Extra = &stringtable.ExtraData{ByteLen: size, Data: data}
		}
		entries = append(entries, stringtable.IndexedEntry{Index: i, Entry: entry})
	}
	return entries, nil
}

func (p *StringTablesPacket) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(p.Tick); err != nil {
		return err
	}
	return w.ReserveByteLength(32, func(w *bitstream.Writer) error {
		if err := w.WriteUint(uint32(len(p.Tables)), 8); err != nil {
			return err
		}
		for _, t := range p.Tables {
			if err := w.WriteString(t.Name); err != nil {
				return err
			}
			if err := writeSnapshotEntries(w, t.Entries); err != nil {
				return err
			}
			if err := w.WriteBool(t.ClientEntries != nil); err != nil {
				return err
			}
			if t.ClientEntries != nil {
				if err := writeSnapshotEntries(w, t.ClientEntries); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func writeSnapshotEntries(w *bitstream.Writer, entries []stringtable.IndexedEntry) error {
	if err := w.WriteUint(uint32(len(entries)), 16); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.WriteString(e.Entry.TextOrEmpty()); err != nil {
			return err
		}
		if err := w.WriteBool(e.Entry.Extra != nil); err != nil {
			return err
		}
		if extra := e.Entry.Extra; extra != nil {
			if err := w.WriteUint16(extra.ByteLen); err != nil {
				return err
			}
			if err := w.WriteRaw(extra.Data); err != nil {
				return err
			}
		}
	}
	return nil
}
