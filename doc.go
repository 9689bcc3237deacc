// Package cvgen renders CV documents with typst from per-person data.
//
// # Quick Start
//
// Build a request, then generate:
//
//	gen := cvgen.NewGenerator(cvgen.WithTimeout(2 * time.Minute))
//
//	req, err := cvgen.NewRequest("jane-doe", "fr", "keyteo", cvgen.Dirs{
//	    Data:      "data",
//	    Output:    "out",
//	    Templates: "templates",
//	})
//	if err != nil {
//	    log.Fatal(err) // ErrInvalidPerson, ErrInvalidLanguage, ErrUnsupportedVariant
//	}
//
//	res, err := gen.Generate(ctx, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Path) // .../out/jane-doe_keyteo_fr.pdf
//
// # Directory Layout
//
// A person lives in {data}/{person}/ and provides cv_params.toml, one
// experiences_{lang}.typ per language, and optionally profile.png and
// company_logo.png. The template root holds each variant's primary file
// (cv.typ, cv_keyteo.typ, cv_keyteo_full.typ), the shared template.typ,
// and variant logos such as keyteo_logo.png.
//
// # Generation Pipeline
//
// Each job moves through these states:
//
//  1. Resolving: every required file is checked (no writes)
//  2. Staging: copies go into a fresh {workspace}/cvgen-job-{uuid} directory
//  3. Compiling: typst runs with the workspace as its root and working directory
//  4. Finalizing: the PDF must exist, then moves to {output}/{person}_{variant}_{lang}.pdf
//  5. CleaningUp: the workspace is removed, whatever happened before
//
// The job ends Done or Failed. Use WithStateObserver to follow transitions.
//
// # Concurrency
//
// A Generator is safe for concurrent use. Jobs never share a workspace and
// never change the process working directory. Two jobs for the same
// (person, variant, lang) race only on the final rename: the last one wins.
// JobPool bounds how many compiler processes a server runs at once.
//
// # Watch Mode
//
// Watch keeps one workspace and re-renders when a source file changes.
// WatchStopOnError ends on the first failed render; WatchContinueOnError
// reports it through WatchOptions.OnRender and keeps going.
//
// # Error Handling
//
// Errors wrap sentinels, check them with errors.Is:
//
//	if errors.Is(err, cvgen.ErrMissingAsset) {
//	    var missing *cvgen.MissingAssetError
//	    errors.As(err, &missing)
//	    fmt.Println("add", missing.Path)
//	}
//
// ErrorCode maps any error to a stable string such as "MISSING_ASSET".
package cvgen
