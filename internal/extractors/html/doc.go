// Package html extracts structured documents from Confluence-style HTML
// exports: a title, a header block of labelled fields and typed sections
// listing resources, databases and services.
package html
