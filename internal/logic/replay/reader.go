package replay

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/protobuf/encoding/protojson"
)

// 单行最大 64MB，与 gRPC 默认的 MaxCallRecvMsgSize 一致
const maxLineSize = 64 * 1024 * 1024

var unmarshalOpts = protojson.UnmarshalOptions{DiscardUnknown: true}

// ReadUpdates 逐行读取 protojson 编码的 SubscribeUpdate（JSONL），对其中的交易更新调用 fn。
// 行也可以直接是 SubscribeUpdateTransaction。空行忽略；解析失败时返回带行号的错误。
func ReadUpdates(r io.Reader, fn func(update *pb.SubscribeUpdateTransaction) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	count, line := 0, 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		tx, err := decodeLine(raw)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		if tx == nil {
			continue
		}
		if err := fn(tx); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("line %d: %w", line+1, err)
	}
	return count, nil
}

func decodeLine(raw []byte) (*pb.SubscribeUpdateTransaction, error) {
	var update pb.SubscribeUpdate
	if err := unmarshalOpts.Unmarshal(raw, &update); err == nil && update.GetUpdateOneof() != nil {
		return update.GetTransaction(), nil
	}
	var tx pb.SubscribeUpdateTransaction
	if err := unmarshalOpts.Unmarshal(raw, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Writer 把交易更新写成 JSONL，可被 ReadUpdates 读回
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(update *pb.SubscribeUpdateTransaction) error {
	raw, err := protojson.Marshal(&pb.SubscribeUpdate{
		UpdateOneof: &pb.SubscribeUpdate_Transaction{Transaction: update},
	})
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(raw); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}
