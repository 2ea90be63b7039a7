// Package manifest reads and writes combine manifests.
//
// A manifest is a CSV document preceded by "#key,value" (or "#key:value")
// directive lines carrying book metadata:
//
//	#title,My Book
//	#author,Jane Doe
//
//	file,title
//	01.m4b,Intro
//	02.m4b,
//
// Row order is authoritative; relative file paths resolve against the
// manifest's directory.
package manifest
