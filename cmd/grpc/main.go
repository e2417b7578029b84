package main

import (
	"compressed-indexer-sol/internal/config"
	"compressed-indexer-sol/internal/logic/grpc"
	"compressed-indexer-sol/internal/metrics"
	"compressed-indexer-sol/internal/svc"
	"compressed-indexer-sol/pkg/logger"
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/grpc.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
		logger.Sync()
	}()

	flag.Parse()

	c := config.MustLoad(*configFile)
	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}

	serviceContext, err := svc.NewGrpcServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	sg := zerosvc.NewServiceGroup()

	var marker grpc.SlotMarker
	if serviceContext.ProgressManager != nil {
		marker = serviceContext.ProgressManager
		sg.Add(serviceContext.ProgressManager)
	}
	if c.MetricsAddr != "" {
		sg.Add(metrics.NewServer(c.MetricsAddr))
	}

	processor := grpc.NewTxProcessor(serviceContext.Parser, serviceContext.Builder, serviceContext.Sink, marker)
	grpcService, err := grpc.NewGrpcStreamManager(
		c.Grpc,
		serviceContext.Programs.GrpcAccountInclude(),
		processor.Handle,
		serviceContext.ResumeFrom,
	)
	if err != nil {
		panic(err)
	}
	sg.Add(grpcService)

	logger.Infof("Starting grpc stream service, endpoint=%s, filter=%s",
		c.Grpc.Endpoint, serviceContext.Programs.LightSystem)

	// 等待退出信号
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("Shutting down services...")
		sg.Stop()
	}()

	// 阻塞直到所有服务退出
	sg.Start()
}
