package pcapreader

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/samaelod/usmu/types"
)

type testPacket struct {
	srcIP, dstIP     string
	srcPort, dstPort int
	data             []byte
	at               time.Time
}

func writeCapture(t *testing.T, packets []testPacket) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatal(err)
	}

	for _, pkt := range packets {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
			DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			IHL:      5,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.ParseIP(pkt.srcIP),
			DstIP:    net.ParseIP(pkt.dstIP),
		}
		udp := &layers.UDP{
			SrcPort: layers.UDPPort(pkt.srcPort),
			DstPort: layers.UDPPort(pkt.dstPort),
		}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			t.Fatal(err)
		}

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(pkt.data)); err != nil {
			t.Fatal(err)
		}

		ci := gopacket.CaptureInfo{
			Timestamp:     pkt.at,
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}
		if err := w.WritePacket(ci, buf.Bytes()); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestReadScript(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := writeCapture(t, []testPacket{
		{"10.0.0.1", "10.0.0.2", 40000, 7777, []byte("ping"), base},
		{"10.0.0.2", "10.0.0.1", 7777, 40000, []byte("pong"), base.Add(50 * time.Millisecond)},
		{"10.0.0.1", "10.0.0.2", 40000, 7777, []byte("quit"), base.Add(100 * time.Millisecond)},
	})

	script, ep, err := ReadScript(path)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}

	// Only the initiator's packets become records; the reply is the
	// response a live replay will get on its own.
	if len(script.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(script.Records))
	}
	if string(script.Records[0].Payload.Data) != "ping" || script.Records[0].Delay != 0 {
		t.Errorf("record 0 = %q after %v", script.Records[0].Payload.Data, script.Records[0].Delay)
	}
	if string(script.Records[1].Payload.Data) != "quit" || script.Records[1].Delay != 100*time.Millisecond {
		t.Errorf("record 1 = %q after %v", script.Records[1].Payload.Data, script.Records[1].Delay)
	}

	if ep.Protocol != types.UDP || ep.Host != "10.0.0.2" || ep.Port != 7777 {
		t.Errorf("endpoint = %+v, want the initiator's target", ep)
	}
}

func TestReadScriptEmptyPayloads(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := writeCapture(t, []testPacket{
		{"10.0.0.1", "10.0.0.2", 40000, 7777, nil, base},
	})

	if _, _, err := ReadScript(path); err == nil {
		t.Fatal("capture without payloads accepted")
	}
}

func TestReadScriptMissingFile(t *testing.T) {
	if _, _, err := ReadScript(filepath.Join(t.TempDir(), "nope.pcap")); err == nil {
		t.Fatal("missing file accepted")
	}
}
