package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/sergw-project/sergw/internal/inspector"
	"github.com/sergw-project/sergw/internal/logging"
	"github.com/sergw-project/sergw/internal/metrics"
	"github.com/sergw-project/sergw/internal/serialio"
)

// ErrStopRequested is returned by reopenSerial when shutdown was requested
// before the device could be reopened.
var ErrStopRequested = errors.New("gateway: stop requested during reconnect")

// reopenSerial retries serialio.Open on a fixed 1-second interval until it
// succeeds or stop is observed before an attempt. The 1-second wait between
// attempts is not cut short by stop. The "serial reconnected" event is
// published only when at least one attempt of this call failed.
// loopName labels the reconnect-attempts metric ("reader" or "writer").
func reopenSerial(path string, cfg serialio.Config, stop *StopSignal, loopName string, br *inspector.Broker) (serialio.Port, error) {
	var opened serialio.Port
	first := true
	retried := false

	op := func() error {
		if stop.Stopped() {
			return backoff.Permanent(ErrStopRequested)
		}
		if !first {
			retried = true
			metrics.IncReconnectAttempt(loopName)
			logging.L().Warn("serial_reopen_attempt", "path", path, "loop", loopName)
		}
		first = false

		p, err := serialio.Open(path, cfg)
		if err != nil {
			metrics.IncError(metrics.ErrSerialOpen)
			return err
		}
		opened = p
		return nil
	}

	b := backoff.NewConstantBackOff(time.Second)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	logging.L().Info("serial_reopened", "path", path, "loop", loopName)
	if retried {
		br.PublishEvent(fmt.Sprintf("serial reconnected (%s)", loopName))
	}
	return opened, nil
}
