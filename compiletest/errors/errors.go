// Copyright 2024 The Compiletest Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines shared types for handling harness errors.
//
// Errors carry the fixture position they refer to, so that a failure
// report can point at the annotation or directive that caused it.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"compiletest.org/go/compiletest/token"
)

// New is a convenience wrapper for errors.New in the core library.
// It returns an error without position information.
func New(msg string) error {
	return errors.New(msg)
}

// Unwrap is a convenience wrapper for errors.Unwrap in the core library.
func Unwrap(err error) error { return errors.Unwrap(err) }

// Error is the common error message.
type Error interface {
	// Position returns the position of the offending fixture line, if any.
	Position() token.Position

	// Error reports the error message without position information.
	Error() string
}

// In a List, an error is represented by a *posError. The position pos, if
// valid, points at the offending fixture line, and the error condition is
// described by msg.
type posError struct {
	pos token.Position
	msg string

	// The underlying error that triggered this one, if any.
	err error
}

// Newf creates an Error with the given position and formatted message.
func Newf(pos token.Position, format string, args ...interface{}) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...)}
}

// Wrapf creates an Error with the given position and formatted message
// that wraps err.
func Wrapf(err error, pos token.Position, format string, args ...interface{}) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...), err: err}
}

// Promote turns any error into an Error. The position of an error that
// does not carry one is the invalid position.
func Promote(err error) Error {
	if e, ok := err.(Error); ok {
		return e
	}
	return &posError{err: err}
}

func (e *posError) Position() token.Position { return e.pos }

func (e *posError) Error() string {
	switch {
	case e.msg == "" && e.err == nil:
		return "unknown error"
	case e.msg == "":
		return e.err.Error()
	case e.err == nil:
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *posError) Unwrap() error { return e.err }

// List is a list of Errors.
// The zero value for a List is an empty List ready to use.
type List []Error

// AddNew adds an Error with given position and message to a List.
func (p *List) AddNew(pos token.Position, msg string) {
	*p = append(*p, &posError{pos: pos, msg: msg})
}

// AddNewf adds an Error with given position and formatted message to a List.
func (p *List) AddNewf(pos token.Position, format string, args ...interface{}) {
	*p = append(*p, Newf(pos, format, args...))
}

// Add adds an Error to a List. If err is a List itself its elements are
// added individually.
func (p *List) Add(err error) {
	if err == nil {
		return
	}
	if l, ok := err.(List); ok {
		*p = append(*p, l...)
		return
	}
	*p = append(*p, Promote(err))
}

// Reset resets a List to no errors.
func (p *List) Reset() { *p = (*p)[:0] }

// Sort sorts a List by position; errors without a valid position sort by
// message, before any positioned entry in the same file.
func (p List) Sort() {
	sort.Slice(p, func(i, j int) bool {
		e, f := p[i].Position(), p[j].Position()
		if e != f {
			return e.Before(f)
		}
		return p[i].Error() < p[j].Error()
	})
}

// RemoveMultiples sorts a List and removes all but the first error per line.
func (p *List) RemoveMultiples() {
	p.Sort()
	var last token.Position // initial last.Line is != any legal error line
	i := 0
	for _, e := range *p {
		pos := e.Position()
		if i == 0 || pos.Filename != last.Filename || pos.Line != last.Line {
			last = pos
			(*p)[i] = e
			i++
		}
	}
	*p = (*p)[:i]
}

// A List implements the error interface.
func (p List) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0], len(p)-1)
}

// Err returns an error equivalent to this error list.
// If the list is empty, Err returns nil.
func (p List) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Print is a utility function that prints a list of errors to w, one error
// per line, if the err parameter is a List. Otherwise it prints the err
// string.
func Print(w io.Writer, err error) {
	if list, ok := err.(List); ok {
		for _, e := range list {
			printError(w, e)
		}
	} else if err != nil {
		printError(w, Promote(err))
	}
}

func printError(w io.Writer, err Error) {
	if pos := err.Position().String(); pos != "-" {
		fmt.Fprintf(w, "%s:\n    %s\n", err.Error(), pos)
		return
	}
	fmt.Fprintf(w, "%s\n", err.Error())
}
