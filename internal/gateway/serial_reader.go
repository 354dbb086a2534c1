package gateway

import (
	"github.com/sergw-project/sergw/internal/buffer"
	"github.com/sergw-project/sergw/internal/inspector"
	"github.com/sergw-project/sergw/internal/logging"
	"github.com/sergw-project/sergw/internal/metrics"
	"github.com/sergw-project/sergw/internal/registry"
	"github.com/sergw-project/sergw/internal/serialio"
)

// serialReaderLoop owns one of the two independent handles onto the serial
// device (the Go rendition of the original's try_clone: rather than
// duplicating one OS handle, the device path is opened a second time).  It
// reads continuously and broadcasts every chunk to every registered TCP
// client. A read timeout (go.bug.st/serial reports this as n==0, err==nil)
// is not an error: it exists only so this loop can notice stop without
// blocking forever. Any genuine read error tears down the handle and
// reopens it on a fixed interval before resuming.
func serialReaderLoop(path string, cfg serialio.Config, stop *StopSignal, reg *registry.Registry, br *inspector.Broker) {
	log := logging.L().With("loop", "serial_reader", "path", path)

	port, err := reopenSerial(path, cfg, stop, "reader", br)
	if err != nil {
		log.Info("serial_reader_stopped", "reason", err)
		return
	}
	defer port.Close()

	buf := make([]byte, 4096)
	for {
		if stop.Stopped() {
			return
		}

		n, err := port.Read(buf)
		if err != nil {
			metrics.IncError(metrics.ErrSerialRead)
			log.Warn("serial_read_error", "error", err)
			_ = port.Close()
			port, err = reopenSerial(path, cfg, stop, "reader", br)
			if err != nil {
				log.Info("serial_reader_stopped", "reason", err)
				return
			}
			continue
		}
		if n == 0 {
			// Read timeout elapsed with nothing to report; loop back to the
			// stop check above.
			continue
		}

		chunk := buffer.New(buf[:n])
		metrics.AddBytesOut(n)
		res := reg.Broadcast(chunk)
		metrics.EvictedFull.Add(float64(res.EvictedFull))
		metrics.EvictedDead.Add(float64(res.EvictedDead))
		br.Publish(inspector.Sample{Tag: inspector.Tag{Dir: inspector.Inbound}, Data: chunk.Bytes()})
	}
}
