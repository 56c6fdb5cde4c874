package usecase

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type metrics struct {
	generated     metric.Int64Counter
	verifyOK      metric.Int64Counter
	verifyFail    metric.Int64Counter
	emailSent     metric.Int64Counter
	emailFailed   metric.Int64Counter
	generateDur   metric.Float64Histogram
	verifyDur     metric.Float64Histogram
	totpVerifyDur metric.Float64Histogram
	emailDur      metric.Float64Histogram
	readinessDur  metric.Float64Histogram
}

func newMetrics(m metric.Meter) *metrics {
	return &metrics{
		generated:     counter(m, "otp.generate", "Codes issued"),
		verifyOK:      counter(m, "otp.verify.success", "Successful verifications"),
		verifyFail:    counter(m, "otp.verify.fail", "Failed verifications by reason"),
		emailSent:     counter(m, "otp.email.sent", "Codes delivered by email"),
		emailFailed:   counter(m, "otp.email.failed", "Email deliveries that failed"),
		generateDur:   histogram(m, "otp.generate.duration", "Time to issue a code"),
		verifyDur:     histogram(m, "otp.verify.duration", "Time to verify a code"),
		totpVerifyDur: histogram(m, "totp.verify.duration", "Time to verify a TOTP token"),
		emailDur:      histogram(m, "otp.email.send.duration", "Time to deliver an email"),
		readinessDur:  histogram(m, "readiness.check.duration", "Time to answer a readiness probe"),
	}
}

func counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func histogram(m metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := m.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		slog.Error("failed to create histogram", "name", name, "error", err)
		return noop.Float64Histogram{}
	}
	return h
}
