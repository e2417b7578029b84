package txadapter

import (
	"compressed-indexer-sol/internal/types"
)

// AccountKeyTable 单笔交易的统一账户表：message.accountKeys ++ ALT writable ++ ALT readonly。
// 指令中的 program / account 索引都指向该表。构建后只读。
type AccountKeyTable struct {
	keys []types.Pubkey
}

// Len 返回索引空间大小，合法索引为 [0, Len())
func (t *AccountKeyTable) Len() int {
	return len(t.keys)
}

// Get 按索引取账户，越界返回 false，调用方自行决定丢弃范围
func (t *AccountKeyTable) Get(idx uint32) (types.Pubkey, bool) {
	if uint64(idx) >= uint64(len(t.keys)) {
		return types.Pubkey{}, false
	}
	return t.keys[idx], true
}

// Keys 返回底层切片的副本
func (t *AccountKeyTable) Keys() []types.Pubkey {
	out := make([]types.Pubkey, len(t.keys))
	copy(out, t.keys)
	return out
}

// BuildAccountKeyTable 构造交易中完整的账户 Pubkey 列表。
// 拼接 message.accountKeys 与 Address Lookup Table 中的 writable / readonly 地址，
// 供后续通过 accountIndex 索引使用。
//
// 注意：
//   - 长度不为 32 的条目直接跳过，不报错，返回值 skipped 记录跳过数量；
//   - 不去重：同一地址可能同时出现在静态账户与 ALT 中，指令引用的是位置而非地址本身。
func BuildAccountKeyTable(accountKeys, loadedWritable, loadedReadonly [][]byte) (table *AccountKeyTable, skipped int) {
	// 按最大可能长度一次性预分配，避免 append 扩容
	keys := make([]types.Pubkey, 0, len(accountKeys)+len(loadedWritable)+len(loadedReadonly))

	for _, section := range [][][]byte{accountKeys, loadedWritable, loadedReadonly} {
		for _, b := range section {
			pk, ok := types.PubkeyFromBytes(b)
			if !ok {
				skipped++
				continue
			}
			keys = append(keys, pk)
		}
	}
	return &AccountKeyTable{keys: keys}, skipped
}
