package main

import (
	"compressed-indexer-sol/internal/config"
	"compressed-indexer-sol/internal/logic/ctoken"
	"compressed-indexer-sol/internal/logic/grpc"
	"compressed-indexer-sol/internal/logic/lightevent"
	"compressed-indexer-sol/internal/logic/replay"
	"compressed-indexer-sol/internal/logic/report"
	"compressed-indexer-sol/internal/mq"
	"compressed-indexer-sol/pkg/logger"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "replay",
		Usage: "record and replay Light Protocol transactions offline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"f"},
				Usage:   "config file, defaults are used when empty",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "decode a JSONL file of SubscribeUpdate messages and report observations",
				ArgsUsage: "<file|->",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "kafka", Usage: "also publish observations to kafka_producer"},
				},
				Action: runReplay,
			},
			{
				Name:      "record",
				Usage:     "subscribe to the configured gRPC endpoint and write transactions as JSONL",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "stop after N transactions, 0 means until interrupted"},
				},
				Action: record,
			},
		},
	}

	defer logger.Sync()
	if err := app.Run(os.Args); err != nil {
		logger.Errorf("replay: %v", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context, validate bool) (config.GrpcConfig, error) {
	path := c.String("config")
	var (
		conf config.GrpcConfig
		err  error
	)
	switch {
	case path == "":
		conf.ApplyDefaults()
	case validate:
		conf, err = config.Load(path)
	default:
		conf, err = config.Parse(path)
	}
	if err != nil {
		return conf, err
	}
	if err := logger.Init(conf.LogConf.ToLogOption()); err != nil {
		return conf, err
	}
	return conf, nil
}

func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func runReplay(c *cli.Context) error {
	conf, err := loadConfig(c, false)
	if err != nil {
		return err
	}
	programs, err := conf.LightConf.ToPrograms()
	if err != nil {
		return err
	}

	sinks := report.MultiSink{report.NewLogSink(logger.L())}
	if c.Bool("kafka") {
		if !conf.KafkaProducerConf.Enabled() {
			return fmt.Errorf("--kafka requires kafka_producer.brokers")
		}
		producer, err := mq.NewKafkaProducer(conf.KafkaProducerConf)
		if err != nil {
			return err
		}
		defer func() {
			producer.Flush(3000)
			producer.Close()
		}()
		sinks = append(sinks, report.NewKafkaSink(
			producer,
			conf.KafkaProducerConf.Topic,
			conf.KafkaProducerConf.Partitions,
			time.Duration(conf.KafkaProducerConf.SendTimeMs)*time.Millisecond,
		))
	}

	in, err := openInput(c.Args().First())
	if err != nil {
		return err
	}
	defer in.Close()

	processor := grpc.NewTxProcessor(
		lightevent.NewNoopParser(programs),
		report.NewBuilder(ctoken.NewInspector(programs)),
		sinks,
		nil,
	)

	observations := 0
	txs, err := replay.ReadUpdates(in, func(update *pb.SubscribeUpdateTransaction) error {
		observations += len(processor.Process(c.Context, update))
		return nil
	})
	logger.Infof("[Replay] done, transactions=%d, observations=%d", txs, observations)
	return err
}

func record(c *cli.Context) error {
	conf, err := loadConfig(c, true)
	if err != nil {
		return err
	}
	programs, err := conf.LightConf.ToPrograms()
	if err != nil {
		return err
	}
	if c.Args().First() == "" {
		return fmt.Errorf("record: output file is required")
	}

	out, err := os.Create(c.Args().First())
	if err != nil {
		return err
	}
	defer out.Close()
	writer := replay.NewWriter(out)
	defer writer.Flush()

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	limit := c.Int("limit")
	written := 0
	stream, err := grpc.NewGrpcStreamManager(conf.Grpc, programs.GrpcAccountInclude(),
		func(_ context.Context, update *pb.SubscribeUpdateTransaction) {
			if err := writer.Write(update); err != nil {
				logger.Errorf("[Replay] write failed: %v", err)
				cancel()
				return
			}
			written++
			if limit > 0 && written >= limit {
				cancel()
			}
		}, nil)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		stream.Stop()
	}()
	stream.Start()

	logger.Infof("[Replay] recorded %d transactions to %s", written, c.Args().First())
	return nil
}
