package packet

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/demo/sendprop"
)

// TableSet 按表名索引的数据表集合，同名时保留首个
type TableSet map[SendTableName]*ParseSendTable

// NewTableSet 由包内数据表构建索引
func NewTableSet(tables []ParseSendTable) TableSet {
	set := make(TableSet, len(tables))
	for i := range tables {
		if _, ok := set[tables[i].Name]; !ok {
			set[tables[i].Name] = &tables[i]
		}
	}
	return set
}

func (s TableSet) dataTable(prop *sendprop.RawSendPropDefinition) *ParseSendTable {
	name, ok := prop.DataTableName()
	if !ok {
		return nil
	}
	return s[SendTableName(name)]
}

// flattener 单次展平的递归上下文；path 记录当前递归链上的表
type flattener struct {
	tables   TableSet
	excludes map[sendprop.SendPropIdentifier]struct{}
	path     map[SendTableName]bool
}

// FlattenProps 展平数据表的全部属性
// 嵌套表中可折叠引用就地拼接，其余引用整体追加到外层；最终把 ChangesOften 属性稳定地移到前面。
func (t *ParseSendTable) FlattenProps(tables TableSet) ([]sendprop.SendPropDefinition, error) {
	f := &flattener{
		tables:   tables,
		excludes: make(map[sendprop.SendPropIdentifier]struct{}),
		path:     make(map[SendTableName]bool),
	}
	if err := f.collectExcludes(t); err != nil {
		return nil, err
	}

	flat := make([]sendprop.SendPropDefinition, 0, 32)
	if err := f.allProps(t, &flat); err != nil {
		return nil, err
	}
	return sortChangesOften(flat), nil
}

func (f *flattener) enter(t *ParseSendTable) error {
	if f.path[t.Name] {
		return fmt.Errorf("%w: %s", sendprop.ErrRecursiveTable, t.Name)
	}
	f.path[t.Name] = true
	return nil
}

func (f *flattener) leave(t *ParseSendTable) { delete(f.path, t.Name) }

// collectExcludes 排除集合沿数据表引用逐层传播
func (f *flattener) collectExcludes(t *ParseSendTable) error {
	if err := f.enter(t); err != nil {
		return err
	}
	defer f.leave(t)

	for i := range t.Props {
		prop := &t.Props[i]
		if table, ok := prop.ExcludeTable(); ok {
			f.excludes[sendprop.NewIdentifier(table, prop.Name)] = struct{}{}
		} else if nested := f.tables.dataTable(prop); nested != nil {
			if err := f.collectExcludes(nested); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *flattener) allProps(t *ParseSendTable, props *[]sendprop.SendPropDefinition) error {
	local := make([]sendprop.SendPropDefinition, 0, len(t.Props))
	if err := f.iterateProps(t, &local, props); err != nil {
		return err
	}
	*props = append(*props, local...)
	return nil
}

func (f *flattener) iterateProps(t *ParseSendTable, local, props *[]sendprop.SendPropDefinition) error {
	if err := f.enter(t); err != nil {
		return err
	}
	defer f.leave(t)

	for i := range t.Props {
		prop := &t.Props[i]
		if prop.IsExclude() {
			continue
		}
		if _, excluded := f.excludes[prop.Identifier]; excluded {
			continue
		}
		if nested := f.tables.dataTable(prop); nested != nil {
			var err error
			if prop.Flags.Contains(sendprop.FlagCollapsible) {
				err = f.iterateProps(nested, local, props)
			} else {
				err = f.allProps(nested, props)
			}
			if err != nil {
				return err
			}
			continue
		}
		def, err := sendprop.NewDefinition(prop)
		if err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
		*local = append(*local, def)
	}
	return nil
}

// sortChangesOften 稳定划分：ChangesOften 在前，各自保持原有相对顺序
func sortChangesOften(flat []sendprop.SendPropDefinition) []sendprop.SendPropDefinition {
	out := make([]sendprop.SendPropDefinition, 0, len(flat))
	for _, p := range flat {
		if p.ChangesOften() {
			out = append(out, p)
		}
	}
	for _, p := range flat {
		if !p.ChangesOften() {
			out = append(out, p)
		}
	}
	return out
}
