// Package document inspects prepared input documents ahead of conversion.
//
// The Inspector answers two questions the pipeline needs before invoking the
// engine: does this document need OCR, and does it carry structural tags that
// must survive conversion. Text density is sampled over a bounded page prefix
// rather than the whole document so inspection stays cheap on large inputs.
package document
