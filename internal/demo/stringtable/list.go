package stringtable

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	historySize       = 32
	historyIndexBits  = 5
	substringBits     = 5
	userDataBytesBits = 14
)

// ReadEntries 读取 count 条条目；文本可复用最近 32 条文本的前缀
func ReadEntries(r *bitstream.Reader, meta *Meta, count int) ([]IndexedEntry, error) {
	entryBits := meta.EntryBits()
	history := make([]string, 0, historySize)
	entries := make([]IndexedEntry, 0, count)
	last := -1

	for i := 0; i < count; i++ {
		index := last + 1
		next, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if !next {
			v, err := r.ReadUint(entryBits)
			if err != nil {
				return nil, err
			}
			index = int(v)
		}
		last = index

		var entry Entry
		hasText, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if hasText {
			text, err := readText(r, history)
			if err != nil {
				return nil, fmt.Errorf("%s entry %d: %w", meta.Name, index, err)
			}
			entry.Text = &text
		}

		hasExtra, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if hasExtra {
			extra, err := readExtra(r, meta)
			if err != nil {
				return nil, fmt.Errorf("%s entry %d: %w", meta.Name, index, err)
			}
			entry.Extra = extra
		}

		if len(history) == historySize {
			history = history[1:]
		}
		history = append(history, entry.TextOrEmpty())
		entries = append(entries, IndexedEntry{Index: index, Entry: entry})
	}
	return entries, nil
}

func readText(r *bitstream.Reader, history []string) (string, error) {
	reuse, err := r.ReadBool()
	if err != nil {
		return "", err
	}
	if !reuse {
		return r.ReadString()
	}
	idx, err := r.ReadUint(historyIndexBits)
	if err != nil {
		return "", err
	}
	n, err := r.ReadUint(substringBits)
	if err != nil {
		return "", err
	}
	if int(idx) >= len(history) {
		return "", fmt.Errorf("history index %d out of range (%d)", idx, len(history))
	}
	prefix := history[idx]
	if int(n) < len(prefix) {
		prefix = prefix[:n]
	}
	suffix, err := r.ReadString()
	if err != nil {
		return "", err
	}
	return prefix + suffix, nil
}

func readExtra(r *bitstream.Reader, meta *Meta) (*ExtraData, error) {
	if fixed := meta.FixedUserDataSize; fixed != nil {
		data, err := r.ReadRaw(int(fixed.Bits))
		if err != nil {
			return nil, err
		}
		return &ExtraData{ByteLen: fixed.Size, Data: data}, nil
	}
	n, err := r.ReadUint(userDataBytesBits)
	if err != nil {
		return nil, err
	}
	data, err := r.ReadRaw(int(n) * 8)
	if err != nil {
		return nil, err
	}
	return &ExtraData{ByteLen: uint16(n), Data: data}, nil
}

// WriteEntries 写出条目列表，文本一律不复用历史
func WriteEntries(w *bitstream.Writer, meta *Meta, entries []IndexedEntry) error {
	entryBits := meta.EntryBits()
	last := -1
	for _, e := range entries {
		next := e.Index == last+1
		if err := w.WriteBool(next); err != nil {
			return err
		}
		if !next {
			if err := w.WriteUint(uint32(e.Index), entryBits); err != nil {
				return err
			}
		}
		last = e.Index

		if err := w.WriteBool(e.Entry.Text != nil); err != nil {
			return err
		}
		if e.Entry.Text != nil {
			if err := w.WriteBool(false); err != nil {
				return err
			}
			if err := w.WriteString(*e.Entry.Text); err != nil {
				return err
			}
		}

		if err := w.WriteBool(e.Entry.Extra != nil); err != nil {
			return err
		}
		if extra := e.Entry.Extra; extra != nil {
			if meta.FixedUserDataSize == nil {
				if err := w.WriteUint(uint32(extra.ByteLen), userDataBytesBits); err != nil {
					return err
				}
			}
			if err := w.WriteRaw(extra.Data); err != nil {
				return err
			}
		}
	}
	return nil
}
