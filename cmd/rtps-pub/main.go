// Command rtps-pub publishes a counter-value sample on a topic once per
// second, demonstrating the write() façade operation over a real UDP
// socket. Grounded on cmd/ublk-mem/main.go's flag parsing, logging setup,
// and signal-driven shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
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
		topicName = flag.String("topic", "Square", "topic name to publish on")
		port      = flag.Uint("port", 7412, "local UDP port to bind")
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
		GuidPrefix:                 wire.GuidPrefix{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
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

	pub, err := participant.CreatePublisher()
	if err != nil {
		logger.Error("failed to create publisher", "error", err)
		os.Exit(1)
	}

	writer, err := pub.CreateDataWriter(topic, rtps.DefaultDataWriterQos())
	if err != nil {
		logger.Error("failed to create data writer", "error", err)
		os.Exit(1)
	}

	writerLog := logger.With(logging.GUIDField("writer", writer.GUID()))
	writerLog.Info("publishing", "topic", *topicName)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var n int
	for {
		select {
		case <-ticker.C:
			n++
			payload := []byte(fmt.Sprintf("sample-%d", n))
			if err := writer.Write(payload, wire.InstanceHandle{}, nil); err != nil {
				writerLog.Warn("write failed", "error", err)
				continue
			}
			writerLog.Info("wrote sample", "n", n)
		case <-sigCh:
			logger.Info("shutting down")
			return
		}
	}
}
