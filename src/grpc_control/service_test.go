package grpc_control

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"options-observer/src/config"
	"options-observer/src/logger"
	"options-observer/src/models"
	"options-observer/src/server"

	"github.com/guregu/null/v6"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startControl(t *testing.T) *grpc.ClientConn {
	t.Helper()
	log := logger.NewLoggerTo(io.Discard, "grpc-test")

	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tables := server.NewTables(
		[]models.MDailyFeature{
			{Ticker: "AAPL", AsOfDate: date, IVMean: null.FloatFrom(0.25), VolumeTotal: 150, PutCallRatio: null.FloatFrom(0.5)},
			{Ticker: "MSFT", AsOfDate: date, VolumeTotal: 0},
		},
		nil,
		time.Time{},
	)

	lis := bufconn.Listen(1 << 20)
	l := NewListener(NewControlService(config.Default().MConfig, tables, log), log)
	go l.Server.Serve(lis)
	t.Cleanup(l.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// -----------------------------------------------------------------------------

func TestStatus(t *testing.T) {
	client := NewControlClient(startControl(t))

	resp, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	fields := resp.GetFields()
	if fields["default"].GetStringValue() != "AAPL" {
		t.Errorf("default = %v", fields["default"])
	}
	if fields["feature_rows"].GetNumberValue() != 2 {
		t.Errorf("feature_rows = %v", fields["feature_rows"])
	}
	if n := len(fields["tickers"].GetListValue().GetValues()); n != 2 {
		t.Errorf("tickers = %d", n)
	}
}

// -----------------------------------------------------------------------------

func TestViews(t *testing.T) {
	client := NewControlClient(startControl(t))

	resp, err := client.Views(context.Background(), models.MViewRequest{Ticker: "AAPL"})
	if err != nil {
		t.Fatalf("Views: %v", err)
	}
	fields := resp.GetFields()
	if fields["ticker"].GetStringValue() != "AAPL" {
		t.Errorf("ticker = %v", fields["ticker"])
	}
	cross := fields["cross_ticker_pcr"].GetListValue().GetValues()
	if len(cross) != 2 {
		t.Fatalf("cross ticker = %v", cross)
	}
	if cross[0].GetStructValue().GetFields()["put_call_ratio"].GetNumberValue() != 0.5 {
		t.Errorf("AAPL ratio = %v", cross[0])
	}

	_, err = client.Views(context.Background(), models.MViewRequest{Ticker: "NOPE"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("unknown ticker code = %v", status.Code(err))
	}
}

// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	resp, err := healthpb.NewHealthClient(startControl(t)).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", resp.Status)
	}
}
