package execextra

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"testing"
)

func requireDD(t *testing.T) {
	if _, err := exec.LookPath("dd"); err != nil {
		t.Skip("dd not found")
	}
}

func TestExtraInOut(t *testing.T) {
	requireDD(t)

	expectedBytes := []byte("hello")

	c := Command("dd")
	inFD, err := c.ExtraIn(bytes.NewBuffer(expectedBytes))
	if err != nil {
		t.Fatal(err)
	}
	actual := &bytes.Buffer{}
	outFD, err := c.ExtraOut(actual)
	if err != nil {
		t.Fatal(err)
	}
	if inFD != 3 || outFD != 4 {
		t.Errorf("expected fds 3 and 4, got %d and %d", inFD, outFD)
	}
	c.Args = append(c.Args, fmt.Sprintf("if=/dev/fd/%d", inFD), fmt.Sprintf("of=/dev/fd/%d", outFD))
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(expectedBytes, actual.Bytes()) {
		t.Errorf("expected bytes %v got %v", expectedBytes, actual.Bytes())
	}
}

func TestChained(t *testing.T) {
	requireDD(t)

	expectedBytes := []byte("hello")
	pr, pw := io.Pipe()

	c := Command("dd")
	cIn, _ := c.ExtraIn(bytes.NewBuffer(expectedBytes))
	cOut, _ := c.ExtraOut(pw)
	c.Args = append(c.Args, fmt.Sprintf("if=/dev/fd/%d", cIn), fmt.Sprintf("of=/dev/fd/%d", cOut))

	d := Command("dd")
	dIn, _ := d.ExtraIn(pr)
	actual := &bytes.Buffer{}
	dOut, _ := d.ExtraOut(actual)
	d.Args = append(d.Args, fmt.Sprintf("if=/dev/fd/%d", dIn), fmt.Sprintf("of=/dev/fd/%d", dOut))

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	cErr := c.Wait()
	pw.Close()
	dErr := d.Wait()
	if cErr != nil || dErr != nil {
		t.Fatal(cErr, dErr)
	}

	if !bytes.Equal(expectedBytes, actual.Bytes()) {
		t.Errorf("expected bytes %v got %v", expectedBytes, actual.Bytes())
	}
}
