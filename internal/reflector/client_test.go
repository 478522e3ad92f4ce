package reflector

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/kc1awv/m17-core/internal/m17"
)

func newUDPPair(t *testing.T) (client *net.UDPConn, server *net.UDPConn) {
	t.Helper()

	server, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen server: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	client, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client, server
}

func testAddress(t *testing.T, callsign string) m17.Address {
	t.Helper()
	a, err := m17.NewAddressFromCallsign(callsign)
	if err != nil {
		t.Fatalf("address %q: %v", callsign, err)
	}
	return a
}

func readPacket(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	buf := make([]byte, 512)
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return buf[:n]
}

func TestClientSendFrame(t *testing.T) {
	clientConn, serverConn := newUDPPair(t)
	remote := serverConn.LocalAddr().(*net.UDPAddr)

	c := NewTestClient(context.Background(), clientConn, remote, testAddress(t, "N0CALL"), 'A', "M17-TST")

	frame := m17.NewIPFrame(testAddress(t, "@ALL"), testAddress(t, "N0CALL"), 0x0042, 0x0005, 1, [m17.PayloadLen]byte{}, false)
	if err := c.SendFrame(frame); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	data := readPacket(t, serverConn)
	parsed, err := m17.ParseIPFrame(data)
	if err != nil {
		t.Fatalf("ParseIPFrame: %v", err)
	}
	if parsed.StreamID != 0x0042 {
		t.Fatalf("stream id = %#04x, want 0x0042", parsed.StreamID)
	}
}

func TestClientReceivesFrames(t *testing.T) {
	clientConn, serverConn := newUDPPair(t)
	remote := serverConn.LocalAddr().(*net.UDPAddr)

	c := NewTestClient(context.Background(), clientConn, remote, testAddress(t, "N0CALL"), 'A', "M17-TST")
	go c.listen()
	defer c.Close()

	clientAddr := clientConn.LocalAddr().(*net.UDPAddr)
	frame := m17.NewIPFrame(testAddress(t, "@ALL"), testAddress(t, "W2FBI"), 7, 0x0005, 0, [m17.PayloadLen]byte{}, false)
	buf := frame.Bytes()
	if _, err := serverConn.WriteToUDP(buf[:], clientAddr); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	select {
	case got := <-c.Frames:
		if got.LSF.Src.Callsign() != "W2FBI" {
			t.Fatalf("src = %q", got.LSF.Src.Callsign())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestClientAnswersPing(t *testing.T) {
	clientConn, serverConn := newUDPPair(t)
	remote := serverConn.LocalAddr().(*net.UDPAddr)

	c := NewTestClient(context.Background(), clientConn, remote, testAddress(t, "N0CALL"), 'A', "M17-TST")
	go c.listen()
	defer c.Close()

	reflectorAddr := testAddress(t, "M17-REF")
	refBytes := reflectorAddr.Bytes()
	ping := append([]byte("PING"), refBytes[:]...)

	clientAddr := clientConn.LocalAddr().(*net.UDPAddr)
	if _, err := serverConn.WriteToUDP(ping, clientAddr); err != nil {
		t.Fatalf("write PING: %v", err)
	}

	data := readPacket(t, serverConn)
	parsed, err := m17.ParseControlPacket(data)
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if parsed.Type != m17.CtrlPONG {
		t.Fatalf("response type = %v, want PONG", parsed.Type)
	}
	if parsed.From.Callsign() != "N0CALL" {
		t.Fatalf("PONG from %q", parsed.From.Callsign())
	}
}

func TestClientCloseSendsDISC(t *testing.T) {
	clientConn, serverConn := newUDPPair(t)
	remote := serverConn.LocalAddr().(*net.UDPAddr)

	c := NewTestClient(context.Background(), clientConn, remote, testAddress(t, "N0CALL"), 'A', "M17-TST")
	c.Close()

	data := readPacket(t, serverConn)
	parsed, err := m17.ParseControlPacket(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Type != m17.CtrlDISC {
		t.Fatalf("type = %v, want DISC", parsed.Type)
	}
}
