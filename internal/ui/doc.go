// Package ui implements the interactive management screen using bubbletea's Elm architecture.
//
// A [Model] wraps one [listing.Controller] and, for resources with a status toggle, a [tasks.Coordinator]. The
// visible page is rendered with bubbles/table; the search term is edited in a bubbles/textinput. Every key maps onto a
// controller operation, so the screen holds no list state of its own:
//
//	/        search (enter keeps the term, esc restores the previous one)
//	s, o     next sort field, flip sort order
//	n, p     next and previous page
//	g        cycle the genre facet (movies)
//	t        toggle the selected record's status
//	r        reload
//
// Coordinator progress flows through a channel and is shown on the status line. Rows with a mutation in flight are
// marked; pressing t again on them is rejected by the coordinator.
package ui
