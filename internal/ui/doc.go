// Package ui implements a terminal progress view for a single transfer using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [TransferView] : spinner, current phase, a progress bar over the matched tracks and the most recent outcomes
//  2. [ResultView] : final counts, the YouTube playlist link and a filterable list of every track outcome
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the transfer engine, which never blocks on a slow terminal.
//
// Keys: esc cancels a running transfer, r runs it again (creating another playlist), q quits.
package ui
