package consts

import "compressed-indexer-sol/internal/types"

// Programs 一次运行期间固定不变的程序地址与判别常量。
// 默认值对应 devnet / mainnet 的 Light Protocol 部署，其他网络通过配置覆盖。
// 构造后只读，按值传递，不需要加锁。
type Programs struct {
	LightSystem                 types.Pubkey        // 订阅过滤用的 Light System Program
	CToken                      types.Pubkey        // cToken 程序，输出账户 owner 等于它时才尝试解析 mint
	Noop                        types.Pubkey        // 事件数据通过 CPI 写入的 noop 程序
	CompressedMintDiscriminator types.Discriminator // CompressedMint 数据的 8 字节前缀
}

func DefaultPrograms() Programs {
	return Programs{
		LightSystem:                 LightSystemProgram,
		CToken:                      CTokenProgram,
		Noop:                        NoopProgram,
		CompressedMintDiscriminator: CompressedMintDiscriminator,
	}
}

// GrpcAccountInclude 返回 Yellowstone 交易订阅的 account_include 过滤列表
func (p Programs) GrpcAccountInclude() []string {
	return []string{p.LightSystem.String()}
}
