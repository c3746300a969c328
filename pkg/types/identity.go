package types

import "strings"

// ============================================================================
//                              Identity - 对象身份
// ============================================================================

// Identity 对象身份
//
// 外部表示格式：
//   - "name"：无类别
//   - "category/name"：带类别
type Identity struct {
	// Category 类别（可选）
	Category string

	// Name 名称（必需）
	Name string
}

// ParseIdentity 解析身份字符串
//
// 第一个 '/' 之前的部分为类别，其余为名称。
func ParseIdentity(s string) (Identity, error) {
	category, name, ok := strings.Cut(s, "/")
	if !ok {
		category, name = "", s
	}
	id := Identity{Category: category, Name: name}
	if id.IsEmpty() {
		return Identity{}, ErrEmptyIdentity
	}
	return id, nil
}

// String 返回身份的字符串表示
func (id Identity) String() string {
	if id.Category == "" {
		return id.Name
	}
	return id.Category + "/" + id.Name
}

// IsEmpty 名称为空即视为空身份
func (id Identity) IsEmpty() bool {
	return id.Name == ""
}

// MarshalText 实现 encoding.TextMarshaler
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
//
// 空文本解码为零值身份（适配器代理没有身份）。
func (id *Identity) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = Identity{}
		return nil
	}
	parsed, err := ParseIdentity(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
