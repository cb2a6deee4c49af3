// Package ui asks the operator whether to go ahead with an upload.
//
// Three [Confirmer] implementations exist:
//  1. [PromptConfirmer] : line prompt with list (L), upload (U) and abort (anything else)
//  2. [ListConfirmer] : bubbletea program with a filterable list of the candidates
//  3. [AutoConfirmer] : always uploads, for scripted runs
//
// The list view [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// File descriptions (ID3 artist, title and album for mp3 files, plus size) are loaded
// in the background after start and delivered as a [Msg].
//
// The palette in colors.go is shared with the console summary.
package ui
