package consts

import "compressed-indexer-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	// Light Protocol
	LightSystemProgramStr = "SySTEM1eSU2p4BGQfQpimFEWWSC1XDFeun3Nqzz3rT7"
	CTokenProgramStr      = "cTokenmWW8bLPjZEBAUgYy3zKxQZW6VKi7bqNFEVv3m"

	// SPL Noop：light system program 通过 CPI 到该程序记录事件数据
	NoopProgramStr = "noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV"
)

var (
	LightSystemProgram = types.PubkeyFromBase58(LightSystemProgramStr)
	CTokenProgram      = types.PubkeyFromBase58(CTokenProgramStr)
	NoopProgram        = types.PubkeyFromBase58(NoopProgramStr)

	// CompressedMintDiscriminator cToken 程序下 CompressedMint 账户数据的类型前缀
	CompressedMintDiscriminator = types.Discriminator{0, 0, 0, 0, 0, 0, 0, 1}
)
