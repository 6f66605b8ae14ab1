// Command rtps-sub subscribes to a topic and prints every sample it
// takes, once per second. Grounded on cmd/ublk-mem/main.go's flag
// parsing, logging setup, and signal-driven shutdown.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gortps/rtps"
	"github.com/gortps/rtps/examples/udptransport"
	"github.com/gortps/rtps/internal/logging"
	"github.com/gortps/rtps/internal/wire"
)

func main() {
	var (
		topicName = flag.String("topic", "Square", "topic name to subscribe to")
		port      = flag.Uint("port", 7413, "local UDP port to bind")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)

	transport, err := udptransport.New("", uint32(*port))
	if err != nil {
		logger.Error("failed to bind transport", "error", err)
		os.Exit(1)
	}
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	participant, err := rtps.NewParticipant(ctx, rtps.ParticipantConfig{
		DomainID:                   0,
		GuidPrefix:                 wire.GuidPrefix{21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32},
		MetatrafficUnicastLocators: []wire.Locator{wire.LocatorFromUDPv4(127, 0, 0, 1, uint32(*port))},
		Transport:                  transport,
		Logger:                     logger,
	})
	if err != nil {
		logger.Error("failed to create participant", "error", err)
		os.Exit(1)
	}
	defer participant.Close()

	topic, err := participant.CreateTopic(*topicName, "ShapeType", rtps.TopicQos{Keyed: false})
	if err != nil {
		logger.Error("failed to create topic", "error", err)
		os.Exit(1)
	}

	sub, err := participant.CreateSubscriber()
	if err != nil {
		logger.Error("failed to create subscriber", "error", err)
		os.Exit(1)
	}

	reader, err := sub.CreateDataReader(topic, rtps.DefaultDataReaderQos())
	if err != nil {
		logger.Error("failed to create data reader", "error", err)
		os.Exit(1)
	}

	readerLog := logger.With(logging.GUIDField("reader", reader.GUID()))
	readerLog.Info("subscribing", "topic", *topicName)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, s := range reader.Take(0, nil) {
				readerLog.Info("received sample", "seq", s.SequenceNumber, "bytes", len(s.Data))
			}
		case <-sigCh:
			logger.Info("shutting down")
			return
		}
	}
}
