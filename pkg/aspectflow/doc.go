// Package aspectflow tags utterances with keyword-defined aspect categories
// and extracts, per speaker, the order in which aspects came up.
//
// Quick start:
//
//	af, err := aspectflow.New(aspectflow.WithPreset("creative-process"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(af.Tag("我從回憶裡得到靈感")) // [靈感來源]
//
//	seqs := af.ExtractSequences([]aspectflow.Record{
//	    {Entity: "小明", Text: "我從回憶裡得到靈感"},
//	    {Entity: "小明", Text: "然後開始構思主題"},
//	})
//	fmt.Println(seqs["小明"]) // [靈感來源 主題發想]
//
// A category repeated by consecutive tags of the same speaker is recorded
// once; it reappears only after a different category intervenes.
//
// An Aspectflow instance is immutable and safe for concurrent use.
package aspectflow
