package asm

import (
	"testing"
)

func TestImageRoundTrip(t *testing.T) {
	abs, err := sampleProgram(t).Translate()
	if err != nil {
		t.Fatal(err)
	}
	img, err := abs.Image("sample.laml")
	if err != nil {
		t.Fatal(err)
	}
	if img.BuildID == "" {
		t.Error("BuildID is empty")
	}
	data, err := MarshalImage(img)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := UnmarshalImage(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Source != "sample.laml" || decoded.BuildID != img.BuildID {
		t.Errorf("decoded header = %q %q, want %q %q", decoded.Source, decoded.BuildID, "sample.laml", img.BuildID)
	}
	back, err := decoded.Absolute()
	if err != nil {
		t.Fatal(err)
	}
	want, _ := abs.Render()
	got, _ := back.Render()
	if got != want {
		t.Errorf("image round trip =\n%s\nwant:\n%s", got, want)
	}
}

func TestImageDeterministicEncoding(t *testing.T) {
	abs, _ := sampleProgram(t).Translate()
	img, _ := abs.Image("")
	a, _ := MarshalImage(img)
	b, _ := MarshalImage(img)
	if string(a) != string(b) {
		t.Error("encoding of the same image differs between calls")
	}
}

func TestImageRejectsUnresolved(t *testing.T) {
	abs := &Absolute{Code: Code{Ldf("nowhere", "")}}
	if _, err := abs.Image(""); err == nil {
		t.Error("Image with unresolved label succeeded")
	}
}

func TestUnmarshalImageVersion(t *testing.T) {
	data, _ := MarshalImage(&Image{Version: 99})
	if _, err := UnmarshalImage(data); err == nil {
		t.Error("UnmarshalImage accepted version 99")
	}
}
