package kv

import "testing"

func TestBytesCodecRoundTrip(t *testing.T) {
	var c BytesCodec
	in := []byte("hello")
	marshaled, err := c.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Unmarshal(marshaled)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "hello" {
		t.Errorf("got %q", out)
	}
}

type codecTestItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONCodecRoundTrip(t *testing.T) {
	var c JSONCodec[codecTestItem]
	in := codecTestItem{Name: "x", Count: 7}
	marshaled, err := c.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Unmarshal(marshaled)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}
