package mrl

import (
	"reflect"
	"testing"
)

func TestBufferInvalid(t *testing.T) {
	if _, err := newLevelBuffer(0); err == nil {
		t.Error("expected error, got nil")
	}
	if _, err := newLevelBuffer(-2); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestBufferPushNotFull(t *testing.T) {
	buf, err := newLevelBuffer(4)
	if err != nil {
		t.Fatal("expected no err, got", err)
	}
	buf.push(5)
	buf.push(2)
	buf.push(-1)

	if buf.isFull() {
		t.Error("expected not full, got full")
	}
	if val := buf.size(); val != 3 {
		t.Error("expected 3, got", val)
	}
	if got := buf.values(); !reflect.DeepEqual([]int64{5, 2, -1}, got) {
		t.Errorf("expected slot order, got %v", got)
	}
}

func TestBufferCompactEven(t *testing.T) {
	buf, err := newLevelBuffer(6)
	if err != nil {
		t.Fatal("expected no err, got", err)
	}
	for _, v := range []int64{4, 1, 4, 5, 7, 4} {
		if err := buf.push(v); err != nil {
			t.Fatal(err)
		}
	}
	if !buf.isFull() {
		t.Fatal("expected full, got not full")
	}

	expected := []int64{1, 4, 5}
	if got := buf.compact(); !reflect.DeepEqual(expected, got) {
		t.Errorf("expected %v, got %v", expected, got)
	}
	if buf.size() != 0 || buf.isFull() {
		t.Errorf("expected cleared buffer, got size %v", buf.size())
	}
}

func TestBufferCompactOdd(t *testing.T) {
	buf, err := newLevelBuffer(5)
	if err != nil {
		t.Fatal("expected no err, got", err)
	}
	for _, v := range []int64{9, 3, 7, 1, 5} {
		buf.push(v)
	}
	expected := []int64{1, 5, 9}
	if got := buf.compact(); !reflect.DeepEqual(expected, got) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestBufferPushFullDeath(t *testing.T) {
	buf, err := newLevelBuffer(2)
	if err != nil {
		t.Fatal("expected no err, got", err)
	}
	buf.push(5)
	buf.push(2)

	if !buf.isFull() {
		t.Error("expected full, got not full")
	}
	if err := buf.push(6); err == nil {
		t.Error("expected buffer already full")
	}
	if got := buf.values(); !reflect.DeepEqual([]int64{5, 2}, got) {
		t.Errorf("expected contents unchanged, got %v", got)
	}
}
