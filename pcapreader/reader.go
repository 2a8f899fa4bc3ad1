// Package pcapreader turns a capture file into a replay script: the
// payload-bearing packets of the capture's initiating talker become the
// script's sends, with inter-packet gaps as delays. Both classic pcap
// and pcapng are read with the pure-Go pcapgo readers.
package pcapreader

import (
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/types"
)

type packetSource interface {
	LinkType() layers.LinkType
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)
}

func detectFormat(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	header := make([]byte, 4)
	n, err := file.Read(header)
	if err != nil || n < 4 {
		return "pcap", nil
	}

	// pcapng Section Header Block magic
	magic := uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16 | uint32(header[3])<<24
	if magic == 0x0A0D0D0A {
		return "pcapng", nil
	}
	return "pcap", nil
}

func openSource(path string) (packetSource, *os.File, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var src packetSource
	if format == "pcapng" {
		src, err = pcapgo.NewNgReader(file, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(file)
	}
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return src, file, nil
}

// ReadScript extracts the initiator's sends from a capture. The
// initiator is the source of the first payload-bearing TCP segment or
// UDP datagram; packets from other talkers are the responses a live
// replay will observe on its own, so they are skipped. The returned
// endpoint is the initiator's target and makes a usable default replay
// target.
func ReadScript(path string) (types.ReplayScript, types.Endpoint, error) {
	src, file, err := openSource(path)
	if err != nil {
		return types.ReplayScript{}, types.Endpoint{}, err
	}
	defer file.Close()

	var (
		script    types.ReplayScript
		endpoint  types.Endpoint
		initiator string
		prev      time.Time
	)

	packetSrc := gopacket.NewPacketSource(src, src.LinkType())
	for packet := range packetSrc.Packets() {
		netLayer := packet.NetworkLayer()
		if netLayer == nil {
			continue
		}

		var (
			proto            types.Protocol
			data             []byte
			srcPort, dstPort int
		)
		if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
			tcp := tcpLayer.(*layers.TCP)
			proto, data = types.TCP, tcp.Payload
			srcPort, dstPort = int(tcp.SrcPort), int(tcp.DstPort)
		} else if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
			udp := udpLayer.(*layers.UDP)
			proto, data = types.UDP, udp.Payload
			srcPort, dstPort = int(udp.SrcPort), int(udp.DstPort)
		} else {
			continue
		}
		if len(data) == 0 {
			continue
		}

		var srcIP, dstIP string
		switch ip := netLayer.(type) {
		case *layers.IPv4:
			srcIP, dstIP = ip.SrcIP.String(), ip.DstIP.String()
		case *layers.IPv6:
			srcIP, dstIP = ip.SrcIP.String(), ip.DstIP.String()
		default:
			srcIP = netLayer.NetworkFlow().Src().String()
			dstIP = netLayer.NetworkFlow().Dst().String()
		}

		key := fmt.Sprintf("%s:%d", srcIP, srcPort)
		if initiator == "" {
			initiator = key
			endpoint = types.Endpoint{Protocol: proto, Host: dstIP, Port: dstPort}
		}
		if key != initiator {
			continue
		}

		ts := packet.Metadata().Timestamp
		var delay time.Duration
		if !prev.IsZero() {
			delay = ts.Sub(prev)
		}
		prev = ts

		script.Records = append(script.Records, types.ReplayRecord{
			Delay:   delay,
			Payload: payload.FromBytes(data),
		})
	}

	if len(script.Records) == 0 {
		return types.ReplayScript{}, types.Endpoint{}, fmt.Errorf("%s: no payload-bearing packets", path)
	}
	return script, endpoint, nil
}
