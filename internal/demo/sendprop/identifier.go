package sendprop

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// SendPropIdentifier (所属表, 属性名) 的稳定标识，跨进程运行哈希一致
type SendPropIdentifier uint64

// NewIdentifier 以 "table\x00prop" 计算 xxhash64
func NewIdentifier(table, prop string) SendPropIdentifier {
	d := xxhash.New()
	_, _ = d.WriteString(table)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(prop)
	return SendPropIdentifier(d.Sum64())
}

func (id SendPropIdentifier) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}
