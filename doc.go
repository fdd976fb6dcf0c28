// Package vidsum turns a video submission into a downloadable PDF summary.
//
// # Quick Start
//
// Create a pipeline with the two service endpoints, submit, and read the
// resulting state:
//
//	p, err := vidsum.NewPipeline(vidsum.Config{
//	    Endpoints: vidsum.Endpoints{
//	        FileURL: "https://hooks.example/upload",
//	        LinkURL: "https://hooks.example/youtube",
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	if err := p.Submit(ctx, vidsum.NewLinkSubmission("https://youtu.be/abc")); err != nil {
//	    log.Println(p.State().AlertMessage)
//	}
//	fmt.Println(p.State().ArtifactURI)
//
// # Pipeline
//
// A submission goes through four stages:
//
//  1. Dispatch to the remote summarization service (multipart upload or JSON link)
//  2. Normalization of the reply: HTML wins, otherwise Markdown via Goldmark,
//     wrapped in the fixed summary template
//  3. Rendering to an A4 PDF with headless Chrome (go-rod)
//  4. Publication under a local handle that supersedes the previous one
//
// A Pipeline serves one UI session. Only one submission runs at a time; a
// second call while one is in flight returns ErrBusy. Every failure ends with
// loading cleared and an alert that expires after the configured TTL.
package vidsum
