package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sensornode/internal/logger"

	"github.com/google/uuid"
)

const DefaultReportTimeout = 5 * time.Second

// ErrorReporter makes one best-effort attempt to ship a fault description
// to the remote log sink. Report never fails and never panics.
type ErrorReporter struct {
	sink     LogSink
	deviceID string
	timeout  time.Duration
	log      *logger.Logger
}

func NewErrorReporter(sink LogSink, deviceID string, timeout time.Duration, log *logger.Logger) *ErrorReporter {
	if timeout <= 0 {
		timeout = DefaultReportTimeout
	}
	return &ErrorReporter{
		sink:     sink,
		deviceID: deviceID,
		timeout:  timeout,
		log:      logger.OrNop(log).Named("reporter"),
	}
}

func (r *ErrorReporter) Report(ctx context.Context, fault error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("error_report_panicked", "panic", rec)
		}
	}()
	if r.sink == nil {
		r.log.Warnw("error_report_skipped", "reason", "no log sink", "fault", fault)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	status, err := r.sink.PostLog(ctx, r.describe(fault))
	if err != nil {
		r.log.Warnw("error_report_failed", "err", err)
		return
	}
	r.log.Infow("error_report_sent", "status", status)
}

func (r *ErrorReporter) describe(fault error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "device=%s report=%s fault=", r.deviceID, uuid.NewString())
	if fault == nil {
		b.WriteString("unknown")
	} else {
		b.WriteString(fault.Error())
	}
	var fe *FaultError
	if errors.As(fault, &fe) && len(fe.Stack) > 0 {
		b.WriteString("\n")
		b.Write(fe.Stack)
	}
	return b.String()
}
