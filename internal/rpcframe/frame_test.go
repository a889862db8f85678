package rpcframe

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
)

func encode(body []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	cases := []string{"", "{}", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, strings.Repeat("x", 5000)}
	for _, body := range cases {
		r := NewReader(bytes.NewReader(encode([]byte(body))))
		got, err := r.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage(%q): %v", body, err)
		}
		if string(got) != body {
			t.Fatalf("round trip mismatch: got %q want %q", got, body)
		}
	}
}

func TestEmptyBodyIsNoOpNotEOF(t *testing.T) {
	stream := append(encode([]byte{}), encode([]byte("second"))...)
	r := NewReader(bytes.NewReader(stream))

	first, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("first ReadMessage: %v", err)
	}
	if len(first) != 0 {
		t.Fatalf("expected empty body, got %q", first)
	}

	second, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("second ReadMessage: %v", err)
	}
	if string(second) != "second" {
		t.Fatalf("got %q want %q", second, "second")
	}
}

func TestCleanEOFBeforeAnyHeaderByte(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	_, err := r.ReadMessage()
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestShortBodyIsFatal(t *testing.T) {
	raw := "Content-Length: 10\r\n\r\nshort"
	r := NewReader(strings.NewReader(raw))
	_, err := r.ReadMessage()
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestMissingContentLengthTreatedAsZero(t *testing.T) {
	raw := "X-Custom: 1\r\n\r\n"
	r := NewReader(strings.NewReader(raw))
	got, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty body, got %q", got)
	}
}

func TestUnknownHeadersIgnored(t *testing.T) {
	raw := "X-Trace-Id: abc\r\nContent-Length: 2\r\n\r\nhi"
	r := NewReader(strings.NewReader(raw))
	got, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(got) != "hi" {
		t.Fatalf("got %q want %q", got, "hi")
	}
}

func TestHeaderValueWhitespaceTrimmed(t *testing.T) {
	raw := "Content-Length:    2   \r\n\r\nhi"
	r := NewReader(strings.NewReader(raw))
	got, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(got) != "hi" {
		t.Fatalf("got %q want %q", got, "hi")
	}
}

func TestWriteMessageAtomicUnderConcurrency(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	var mu sync.Mutex
	var wg sync.WaitGroup

	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := []byte(fmt.Sprintf(`{"n":%d}`, i))
			if err := w.WriteMessage(&mu, body); err != nil {
				t.Errorf("WriteMessage: %v", err)
			}
		}(i)
	}
	wg.Wait()

	r := NewReader(bytes.NewReader(buf.Bytes()))
	count := 0
	for {
		msg, err := r.ReadMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if len(msg) == 0 {
			break
		}
		if !strings.HasPrefix(string(msg), `{"n":`) {
			t.Fatalf("interleaved/corrupted frame: %q", msg)
		}
		count++
	}
	if count != n {
		t.Fatalf("got %d frames, want %d", count, n)
	}
}
