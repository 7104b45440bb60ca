// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package codegen_tests

import (
	"time"

	"github.com/google/uuid"

	absave "github.com/ABCo-Src/ABSave-sub000"
)

//go:generate go run ../codegen -pkg . -type Customer,Order

type Customer struct {
	Name  string `absave:"0"`
	email string `absave:"1"`
}

type Order struct {
	_        absave.SaveMembers
	ID       uuid.UUID `absave:"0"`
	Customer *Customer `absave:"1"`
	Lines    []Line    `absave:"2"`
	Placed   time.Time `absave:"3"`
	Note     string    `absave:"4,from=1"`
}

// Line has no generated accessors and is read through field offsets.
type Line struct {
	SKU string `absave:"0"`
	Qty int32  `absave:"1"`
}
