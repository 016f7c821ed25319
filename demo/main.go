package main

import (
	"fmt"
	"os"

	"github.com/axiomhq/mrl"
)

func main() {
	stream := []int64{4, 1, 4, 5, 7, 4, 5, 7, 8, 2, 1, 1, 3, 2}
	sketch, err := mrl.New(0.8, int64(len(stream)), mrl.WithTrace(os.Stdout))
	if err != nil {
		panic(err)
	}
	for _, v := range stream {
		if err := sketch.Insert(v); err != nil {
			panic(err)
		}
	}

	fmt.Println("rank(7) =", sketch.Rank(7))
	q, err := sketch.Quantile(0.2)
	if err != nil {
		panic(err)
	}
	fmt.Println("quantile(0.2) =", q)
	s, err := sketch.Select(2)
	if err != nil {
		panic(err)
	}
	fmt.Println("select(2) =", s)
	fmt.Println(sketch.Quantiles(4))
}
