package gateway

import (
	"time"

	"github.com/sergw-project/sergw/internal/buffer"
	"github.com/sergw-project/sergw/internal/inspector"
	"github.com/sergw-project/sergw/internal/logging"
	"github.com/sergw-project/sergw/internal/metrics"
	"github.com/sergw-project/sergw/internal/serialio"
)

const writerRecvTimeout = 200 * time.Millisecond

// serialWriterLoop drains the shared ingress queue, in arrival order, onto
// its own independent handle on the serial device. A bounded wait on the
// queue (rather than blocking forever) exists only so the loop can notice
// stop promptly even when no client is sending. On a write failure the
// current chunk is not discarded: the device is reopened and the same
// chunk is retried exactly once, then flushed, mirroring the original
// writer's retry-after-reopen behaviour.
func serialWriterLoop(path string, cfg serialio.Config, stop *StopSignal, ingress <-chan buffer.Buffer, br *inspector.Broker) {
	log := logging.L().With("loop", "serial_writer", "path", path)

	port, err := reopenSerial(path, cfg, stop, "writer", br)
	if err != nil {
		log.Info("serial_writer_stopped", "reason", err)
		return
	}
	defer port.Close()

	for {
		var chunk buffer.Buffer
		select {
		case <-stop.Done():
			return
		case chunk = <-ingress:
		case <-time.After(writerRecvTimeout):
			continue
		}

		if err := writeChunk(port, chunk); err != nil {
			metrics.IncError(metrics.ErrSerialWrite)
			log.Warn("serial_write_error", "error", err)
			br.PublishEvent("serial write failed, reconnecting")
			_ = port.Close()

			port, err = reopenSerial(path, cfg, stop, "writer", br)
			if err != nil {
				log.Info("serial_writer_stopped", "reason", err)
				return
			}

			if err := writeChunk(port, chunk); err != nil {
				log.Warn("serial_write_retry_failed", "error", err)
				metrics.IncError(metrics.ErrSerialWrite)
				continue
			}
			_ = port.Flush()
		}

		br.Publish(inspector.Sample{Tag: inspector.Tag{Dir: inspector.Outbound}, Data: chunk.Bytes()})
	}
}

func writeChunk(port serialio.Port, chunk buffer.Buffer) error {
	_, err := port.Write(chunk.Bytes())
	return err
}
