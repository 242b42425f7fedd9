package protocol

import (
	"bytes"
	"testing"
)

func newProtocol() (*Protocol, *[]byte, *[][]byte) {
	p := New()
	var data []byte
	var sent [][]byte
	p.OnApplicationData = func(b []byte) { data = append(data, b...) }
	p.OnSend = func(b []byte) { sent = append(sent, append([]byte(nil), b...)) }
	return p, &data, &sent
}

func TestStartSendsEchoAndSGA(t *testing.T) {
	p, _, sent := newProtocol()
	p.Start()

	want := [][]byte{
		{iac, will, OptECHO},
		{iac, will, OptSGA},
	}
	if len(*sent) != len(want) {
		t.Fatalf("got %d sends, want %d: %v", len(*sent), len(want), *sent)
	}
	for i := range want {
		if !bytes.Equal((*sent)[i], want[i]) {
			t.Fatalf("send %d: got %v want %v", i, (*sent)[i], want[i])
		}
	}
}

func TestFeedPassesPlainDataThrough(t *testing.T) {
	p, data, _ := newProtocol()
	p.Feed([]byte("status\r\n"))
	if string(*data) != "status\r\n" {
		t.Fatalf("got %q", *data)
	}
}

func TestFeedCollapsesEscapedIAC(t *testing.T) {
	p, data, _ := newProtocol()
	p.Feed([]byte{'a', iac, iac, 'b'})
	if !bytes.Equal(*data, []byte{'a', iac, 'b'}) {
		t.Fatalf("got %v", *data)
	}
}

func TestFeedAcceptsEchoNegotiation(t *testing.T) {
	p, _, sent := newProtocol()
	p.Feed([]byte{iac, do, OptECHO})
	if len(*sent) != 1 || !bytes.Equal((*sent)[0], []byte{iac, will, OptECHO}) {
		t.Fatalf("got %v", *sent)
	}
}

func TestFeedRefusesCompress2ZMPAndMSSP(t *testing.T) {
	cases := []struct {
		name string
		opt  byte
	}{
		{"COMPRESS2", OptCOMPRESS2},
		{"ZMP", OptZMP},
		{"MSSP", OptMSSP},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, _, sent := newProtocol()
			p.Feed([]byte{iac, do, c.opt})
			if len(*sent) != 1 || !bytes.Equal((*sent)[0], []byte{iac, wont, c.opt}) {
				t.Fatalf("DO %s: got %v", c.name, *sent)
			}

			p2, _, sent2 := newProtocol()
			p2.Feed([]byte{iac, will, c.opt})
			if len(*sent2) != 1 || !bytes.Equal((*sent2)[0], []byte{iac, dont, c.opt}) {
				t.Fatalf("WILL %s: got %v", c.name, *sent2)
			}
		})
	}
}

func TestFeedAcceptsBinaryAndNAWS(t *testing.T) {
	p, _, sent := newProtocol()
	p.Feed([]byte{iac, do, OptBINARY, iac, will, OptNAWS})
	want := [][]byte{
		{iac, will, OptBINARY},
		{iac, do, OptNAWS},
	}
	if len(*sent) != len(want) {
		t.Fatalf("got %d sends: %v", len(*sent), *sent)
	}
	for i := range want {
		if !bytes.Equal((*sent)[i], want[i]) {
			t.Fatalf("send %d: got %v want %v", i, (*sent)[i], want[i])
		}
	}
}

func TestFeedSkipsSubnegotiationBlock(t *testing.T) {
	p, data, sent := newProtocol()
	// IAC SB NAWS 0 80 0 24 IAC SE, then plain data.
	p.Feed([]byte{iac, sb, OptNAWS, 0, 80, 0, 24, iac, se})
	p.Feed([]byte("ok"))
	if len(*sent) != 0 {
		t.Fatalf("expected no negotiation replies from subnegotiation, got %v", *sent)
	}
	if string(*data) != "ok" {
		t.Fatalf("got %q", *data)
	}
}

func TestFeedIgnoresWontAndDontReplies(t *testing.T) {
	p, _, sent := newProtocol()
	p.Feed([]byte{iac, wont, OptTTYPE, iac, dont, OptTTYPE})
	if len(*sent) != 0 {
		t.Fatalf("expected no replies, got %v", *sent)
	}
}

func TestEncodeEscapesIAC(t *testing.T) {
	got := Encode([]byte{'a', iac, 'b'})
	want := []byte{'a', iac, iac, 'b'}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFeedAcrossMultipleCalls(t *testing.T) {
	p, _, sent := newProtocol()
	p.Feed([]byte{iac})
	p.Feed([]byte{do})
	p.Feed([]byte{OptECHO})
	if len(*sent) != 1 || !bytes.Equal((*sent)[0], []byte{iac, will, OptECHO}) {
		t.Fatalf("split negotiation across Feed calls failed: %v", *sent)
	}
}
