// Package nlog provides leveled logging for shardql on top of glog.
/*
 * Copyright (c) 2024, shardql authors.
 */
package nlog

import (
	"github.com/golang/glog"
)

func Infoln(args ...interface{})              { glog.InfoDepth(1, args...) }
func Infof(format string, args ...interface{}) { glog.Infof(format, args...) }

func Warningln(args ...interface{})              { glog.WarningDepth(1, args...) }
func Warningf(format string, args ...interface{}) { glog.Warningf(format, args...) }

func Errorln(args ...interface{})              { glog.ErrorDepth(1, args...) }
func Errorf(format string, args ...interface{}) { glog.Errorf(format, args...) }

func Fatalln(args ...interface{})              { glog.FatalDepth(1, args...) }
func Fatalf(format string, args ...interface{}) { glog.Fatalf(format, args...) }

// Flush forces a sync of any buffered log entries; call on graceful shutdown.
func Flush() { glog.Flush() }
