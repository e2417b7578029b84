package report

import (
	"compressed-indexer-sol/internal/logic/core"
	"compressed-indexer-sol/internal/logic/ctoken"
	"compressed-indexer-sol/internal/logic/lightevent"
	"errors"
)

// Builder 把解析结果转为观测记录，本身无状态
type Builder struct {
	inspector *ctoken.Inspector
}

func NewBuilder(inspector *ctoken.Inspector) *Builder {
	return &Builder{inspector: inspector}
}

// Build 按 batch 顺序生成记录：BatchSummary，每个输出账户一条，最后是 NewAddresses（数量大于 0 时）
func (b *Builder) Build(txCtx *core.TxContext, batches []*lightevent.EventBatch) []Observation {
	if len(batches) == 0 {
		return nil
	}
	sig := txCtx.SignatureString()

	var obs []Observation
	for bi, batch := range batches {
		base := Observation{Slot: txCtx.Slot, Signature: sig, Batch: bi}
		event := &batch.Event

		summary := base
		summary.Kind = KindBatchSummary
		summary.Summary = &BatchSummary{
			Inputs:  len(event.InputCompressedAccountHashes),
			Outputs: len(event.OutputCompressedAccounts),
		}
		obs = append(obs, summary)

		for i := range event.OutputCompressedAccounts {
			res := b.inspector.Inspect(&event.OutputCompressedAccounts[i])
			obs = append(obs, fromInspection(base, &res))
		}

		if n := len(batch.NewAddresses); n > 0 {
			rec := base
			rec.Kind = KindNewAddresses
			rec.NewAddresses = n
			obs = append(obs, rec)
		}
	}
	return obs
}

// ParseError 事件解析失败时的单条记录
func (b *Builder) ParseError(txCtx *core.TxContext, err error) Observation {
	rec := Observation{
		Kind:      KindParseError,
		Slot:      txCtx.Slot,
		Signature: txCtx.SignatureString(),
		Batch:     -1,
		Error:     err.Error(),
	}
	var pe *lightevent.ParseError
	if errors.As(err, &pe) {
		rec.ErrorKind = pe.Kind.String()
	}
	return rec
}

func fromInspection(base Observation, res *ctoken.Inspection) Observation {
	rec := base
	switch res.Kind {
	case ctoken.InspectionUnrecognized:
		rec.Kind = KindUnrecognizedCToken
		rec.Owner = res.Owner.String()
		rec.Discriminator = res.Discriminator.Bytes()
	case ctoken.InspectionMint:
		rec.Kind = KindMint
		rec.Address = res.AddressString()
		rec.Mint = &MintRecord{
			Mint:     res.Mint.Mint.String(),
			Supply:   res.Mint.Supply,
			Decimals: res.Mint.Decimals,
		}
		for _, md := range res.Mint.TokenMetadata {
			rec.Mint.TokenMetadata = append(rec.Mint.TokenMetadata, TokenMetadataRecord{
				Name:   md.Name,
				Symbol: md.Symbol,
				URI:    md.URI,
			})
		}
	case ctoken.InspectionMintDecodeError:
		rec.Kind = KindMintDecodeError
		rec.Owner = res.Owner.String()
		rec.Address = res.AddressString()
		rec.Error = res.Err.Error()
	default:
		rec.Kind = KindGeneric
		rec.Owner = res.Owner.String()
	}
	return rec
}
