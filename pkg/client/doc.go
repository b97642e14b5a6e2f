// Package pagedex provides an embedded client for the pagedex semantic
// search engine: PDF extraction, chunking, embedding and KNN retrieval over
// Redis with the search module, without a pagedex server in between.
//
// # Basic usage
//
//	client, err := pagedex.New(ctx,
//	    pagedex.WithRedis("localhost:6379", ""),
//	    pagedex.WithOpenAIEmbedding("http://localhost:8080/v1", "key",
//	        "sentence-transformers/all-MiniLM-L6-v2", 384),
//	    pagedex.WithDocumentDir("./document_source"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	report := client.BuildIndex(ctx)
//	if !report.Success {
//	    log.Fatal(report.Error)
//	}
//
//	hits, err := client.Search(ctx, "low-power mode wakeup timings", 5)
//
// # Custom embedders
//
// Any implementation of Embedder can replace the built-in OpenAI-compatible
// provider. Implement BatchEmbedder as well for single-call index builds, and
// ModelLoader to participate in readiness probing:
//
//	client, err := pagedex.New(ctx,
//	    pagedex.WithRedis("localhost:6379", ""),
//	    pagedex.WithEmbedder(myEmbedder),
//	    pagedex.WithVectorDimensions(768),
//	)
package pagedex
