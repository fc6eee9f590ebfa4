package bitstream

// Raw 一段按 bit 计长的原始数据，Data 从第 0 bit 起对齐，尾部多余 bit 为 0
type Raw struct {
	Data []byte
	Len  int
}

// RawFromBytes 以整字节构造 Raw
func RawFromBytes(b []byte) Raw {
	return Raw{Data: b, Len: len(b) * 8}
}

// Reader 返回覆盖该数据的读取器
func (b Raw) Reader() *Reader {
	return &Reader{data: b.Data, end: b.Len}
}

// ByteLen 向上取整的字节数
func (b Raw) ByteLen() int { return (b.Len + 7) / 8 }
