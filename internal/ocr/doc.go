// Package ocr reads the challenge instruction banner with Tesseract and
// turns it into a target label for the solver.
//
// # Prerequisites
//
// Tesseract and its English data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//   - Windows: https://github.com/UB-Mannheim/tesseract/wiki
//
// # Target extraction
//
// A banner reads like "Select all images with / cars / Click verify once
// there are none left." The emphasised phrase follows "with" on the same or
// the next line. It is lowercased, its last word singularised ("traffic
// lights" becomes "traffic light") and then mapped through the configured
// aliases, so that the result can be compared with label table entries.
//
// Parsing and normalisation do not need Tesseract and can be used on text
// obtained elsewhere, for example the banner's DOM text.
package ocr
