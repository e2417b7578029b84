package utils

import "github.com/cespare/xxhash/v2"

// PartitionForKey 按 key 的 xxhash 选择分区，相同 key 恒定落在同一分区
func PartitionForKey(key []byte, partitions uint32) int32 {
	if partitions <= 1 || len(key) == 0 {
		return 0
	}
	return int32(xxhash.Sum64(key) % uint64(partitions))
}
