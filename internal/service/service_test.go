package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"rate-alerts/internal/config"
)

type stubSource struct {
	rate decimal.Decimal
	err  error
}

func (s *stubSource) Fetch(ctx context.Context, url string) (decimal.Decimal, error) {
	return s.rate, s.err
}

type recordingNotifier struct {
	alerts     int
	errs       int
	tests      int
	lastRate   decimal.Decimal
	lastThresh decimal.Decimal
	lastAbove  bool
	lastURL    string
	deliverOK  bool
}

func (r *recordingNotifier) SendRateAlert(ctx context.Context, rate, threshold decimal.Decimal, isAbove bool, sourceURL string) bool {
	r.alerts++
	r.lastRate = rate
	r.lastThresh = threshold
	r.lastAbove = isAbove
	r.lastURL = sourceURL
	return r.deliverOK
}

func (r *recordingNotifier) SendError(ctx context.Context, message string) bool {
	r.errs++
	return r.deliverOK
}

func (r *recordingNotifier) SendTest(ctx context.Context) bool {
	r.tests++
	return r.deliverOK
}

func testConfig() *config.Config {
	return &config.Config{
		Monitor: config.MonitorConfig{
			URL:       "https://example.com/fx",
			Threshold: 1700.0,
		},
	}
}

func TestCheckAboveThresholdSendsAlert(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("1750.50")}
	notifier := &recordingNotifier{deliverOK: true}

	svc := New(testConfig(), source, notifier, zerolog.Nop())
	if err := svc.Check(context.Background()); err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}

	if notifier.alerts != 1 {
		t.Fatalf("expected 1 alert, got %d", notifier.alerts)
	}
	if notifier.errs != 0 {
		t.Fatalf("no error notification expected, got %d", notifier.errs)
	}
	if !notifier.lastAbove {
		t.Fatal("alert should carry the at-or-above direction")
	}
	if !notifier.lastRate.Equal(decimal.RequireFromString("1750.50")) {
		t.Fatalf("unexpected rate %s", notifier.lastRate)
	}
	if !notifier.lastThresh.Equal(decimal.RequireFromString("1700")) {
		t.Fatalf("unexpected threshold %s", notifier.lastThresh)
	}
	if notifier.lastURL != "https://example.com/fx" {
		t.Fatalf("alert should reference the source url, got %q", notifier.lastURL)
	}
}

func TestCheckExactlyAtThresholdSendsAlert(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("1700")}
	notifier := &recordingNotifier{deliverOK: true}

	svc := New(testConfig(), source, notifier, zerolog.Nop())
	if err := svc.Check(context.Background()); err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if notifier.alerts != 1 {
		t.Fatalf("rate equal to threshold must alert, got %d alerts", notifier.alerts)
	}
}

func TestCheckBelowThresholdStaysSilent(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("1650.00")}
	notifier := &recordingNotifier{deliverOK: true}

	svc := New(testConfig(), source, notifier, zerolog.Nop())
	if err := svc.Check(context.Background()); err != nil {
		t.Fatalf("below threshold is a successful run: %v", err)
	}
	if notifier.alerts != 0 || notifier.errs != 0 {
		t.Fatalf("no notification expected, got alerts=%d errs=%d", notifier.alerts, notifier.errs)
	}
}

func TestCheckAcquisitionFailure(t *testing.T) {
	source := &stubSource{err: errors.New("exchange rate unavailable")}
	notifier := &recordingNotifier{deliverOK: true}

	svc := New(testConfig(), source, notifier, zerolog.Nop())
	if err := svc.Check(context.Background()); err == nil {
		t.Fatal("acquisition failure must surface as an error")
	}
	if notifier.errs != 1 {
		t.Fatalf("expected exactly one error notification, got %d", notifier.errs)
	}
	if notifier.alerts != 0 {
		t.Fatalf("no alert expected on failure, got %d", notifier.alerts)
	}
}

func TestCheckCancellationSkipsErrorNotification(t *testing.T) {
	source := &stubSource{err: context.Canceled}
	notifier := &recordingNotifier{deliverOK: true}

	svc := New(testConfig(), source, notifier, zerolog.Nop())
	err := svc.Check(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if notifier.errs != 0 {
		t.Fatalf("shutdown must not dispatch an error report, got %d", notifier.errs)
	}
	if notifier.alerts != 0 {
		t.Fatalf("no alert expected, got %d", notifier.alerts)
	}
}

func TestCheckAlertDeliveryFailureDoesNotFailRun(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("1800")}
	notifier := &recordingNotifier{deliverOK: false}

	svc := New(testConfig(), source, notifier, zerolog.Nop())
	if err := svc.Check(context.Background()); err != nil {
		t.Fatalf("lost alert must not change the run outcome: %v", err)
	}
	if notifier.alerts != 1 {
		t.Fatalf("expected 1 alert attempt, got %d", notifier.alerts)
	}
}
