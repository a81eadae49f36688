package aspectflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/crimson-sun/aspectflow/pkg/aspectflow"
)

func Example() {
	af, err := aspectflow.New(aspectflow.WithCategories(
		aspectflow.Category{Name: "A", Keywords: []string{"cat"}},
		aspectflow.Category{Name: "B", Keywords: []string{"dog"}},
	))
	if err != nil {
		log.Fatal(err)
	}

	seqs := af.ExtractSequences([]aspectflow.Record{
		{Entity: "x", Text: "I have a cat"},
		{Entity: "x", Text: "I have a dog"},
		{Entity: "x", Text: "another cat here"},
		{Entity: "y", Text: "no match here"},
	})
	fmt.Println(seqs["x"])
	fmt.Println(len(seqs["y"]))
	// Output:
	// [A B A]
	// 0
}

func ExampleAspectflow_Sequences() {
	af, err := aspectflow.New(aspectflow.WithPreset("creative-process"))
	if err != nil {
		log.Fatal(err)
	}

	seqs, err := af.Sequences(context.Background(), []aspectflow.Record{
		{Entity: "小明", Text: "我從回憶裡得到靈感"},
		{Entity: "小明", Text: "那個回憶很深刻"},
		{Entity: "小明", Text: "然後開始構思主題"},
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, s := range seqs {
		fmt.Println(s.Entity, s.Categories, s.Records)
	}
	// Output:
	// 小明 [靈感來源 主題發想] 3
}

func ExampleAspectflow_Tag() {
	af, err := aspectflow.New(aspectflow.WithPreset("learning"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(af.Tag("老師鼓勵我們互相討論"))
	// Output:
	// [老師互動 同儕互動]
}
