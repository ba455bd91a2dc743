package output

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/norasector/nexus/pkg/util"
	"gonum.org/v1/gonum/mat"
)

func TestStreamOutput(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	port := listener.LocalAddr().(*net.UDPAddr).Port

	metrics := &util.CaptureWriteAPI{}
	out := NewStreamOutput([]OutputDestination{{Host: "127.0.0.1", Port: port}}, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- out.Start(ctx)
	}()

	f := testFrame(16, 4)
	out.Receive() <- f

	listener.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 65536)
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	size := int(binary.LittleEndian.Uint16(buf[:2]))
	if size != n-2 {
		t.Fatalf("length prefix %d, datagram carries %d", size, n-2)
	}
	got, err := DecodeFrame(buf[2:n])
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(got.Data, f.Data) || got.Number != f.Number {
		t.Errorf("received frame %d does not match", got.Number)
	}

	deadline := time.Now().Add(time.Second)
	for metrics.Count("nexus.sent_frame") == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if metrics.Count("nexus.sent_frame") != 1 {
		t.Error("expected one nexus.sent_frame point")
	}

	cancel()
	if err := <-errChan; err != context.Canceled {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
}
